package departures

import (
	"slices"
	"time"
)

// DefaultWindow bounds how far ahead departures are shown.
const DefaultWindow = time.Hour

// Rank drops cancelled records and anything leaving after now+window, then
// orders the rest by effective time. Equal times keep their input order.
// No count limit is applied.
func Rank(records []Record, now time.Time, window time.Duration) []Record {
	limit := now.Add(window)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Cancelled {
			continue
		}
		eff := r.Effective()
		if eff.IsZero() || eff.After(limit) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return a.Effective().Compare(b.Effective())
	})
	return out
}
