package departures

import (
	"sort"
	"strings"
	"time"
)

// TimeLayout is the feed's timestamp format. Timestamps are always UTC.
const TimeLayout = "2006-01-02T15:04:05Z"

// Normalize converts a raw stop document into a StopGroup. Cancelled events
// are skipped, and events without a destination or without any usable time
// are dropped individually. Times are presented in loc.
func Normalize(stopID string, doc Document, loc *time.Location) StopGroup {
	if loc == nil {
		loc = time.UTC
	}
	group := StopGroup{StopID: stopID}

	var fallbackName string
	if len(doc.Locations) > 0 {
		fallbackName = strings.TrimSpace(doc.Locations[0].DisassembledName)
	}

	parent := ""
	parentAgrees := true
	seen := make(map[Mode]bool)
	for i, ev := range doc.StopEvents {
		if ev.IsCancelled {
			continue
		}
		rec, ok := normalizeEvent(ev, i, loc)
		if !ok {
			continue
		}
		group.Records = append(group.Records, rec)

		name := strings.TrimSpace(ev.Location.Parent.DisassembledName)
		switch {
		case name == "":
			parentAgrees = false
		case parent == "":
			parent = name
		case parent != name:
			parentAgrees = false
		}

		if !seen[rec.Mode] {
			seen[rec.Mode] = true
			group.Modes = append(group.Modes, rec.Mode)
		}
	}

	if len(group.Records) > 0 && parentAgrees && parent != "" {
		group.Name = parent
	} else {
		group.Name = fallbackName
	}

	if len(group.Records) == 0 {
		group.Modes = assignedModes(doc)
	}
	sort.Slice(group.Modes, func(i, j int) bool { return group.Modes[i] < group.Modes[j] })
	return group
}

func normalizeEvent(ev RawEvent, seq int, loc *time.Location) (Record, bool) {
	dest := strings.TrimSpace(ev.Transportation.Destination.Name)
	if dest == "" {
		return Record{}, false
	}
	rec := Record{
		Line:               strings.TrimSpace(ev.Transportation.DisassembledName),
		Destination:        dest,
		RealtimeControlled: ev.IsRealtimeControlled,
		Cancelled:          ev.IsCancelled,
		Mode:               Mode(ev.Transportation.Product.IconID),
		Seq:                seq,
	}
	if t, ok := parseTime(ev.DepartureTimePlanned, loc); ok {
		rec.Scheduled = t
	}
	if t, ok := parseTime(ev.DepartureTimeEstimated, loc); ok {
		rec.Estimated = &t
	}
	if rec.Scheduled.IsZero() && rec.Estimated == nil {
		return Record{}, false
	}
	return rec, true
}

func parseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

func assignedModes(doc Document) []Mode {
	if len(doc.Locations) == 0 || len(doc.Locations[0].AssignedStops) == 0 {
		return nil
	}
	var modes []Mode
	seen := make(map[Mode]bool)
	for _, id := range doc.Locations[0].AssignedStops[0].Modes {
		m := Mode(id)
		if !seen[m] {
			seen[m] = true
			modes = append(modes, m)
		}
	}
	return modes
}
