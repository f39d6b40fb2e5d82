package departures

// Document is the subset of a departure-monitor response the board reads.
// Everything else in the payload is discarded while decoding.
type Document struct {
	Locations  []Location `json:"locations"`
	StopEvents []RawEvent `json:"stopEvents"`
}

type Location struct {
	DisassembledName string         `json:"disassembledName"`
	AssignedStops    []AssignedStop `json:"assignedStops"`
}

type AssignedStop struct {
	Modes []int `json:"modes"`
}

// RawEvent is one stop event as delivered by the feed.
type RawEvent struct {
	DepartureTimePlanned   string         `json:"departureTimePlanned"`
	DepartureTimeEstimated string         `json:"departureTimeEstimated"`
	IsRealtimeControlled   bool           `json:"isRealtimeControlled"`
	IsCancelled            bool           `json:"isCancelled"`
	Location               EventLocation  `json:"location"`
	Transportation         Transportation `json:"transportation"`
}

type EventLocation struct {
	Parent struct {
		DisassembledName string `json:"disassembledName"`
	} `json:"parent"`
}

type Transportation struct {
	DisassembledName string `json:"disassembledName"`
	Product          struct {
		IconID int `json:"iconId"`
	} `json:"product"`
	Destination struct {
		Name string `json:"name"`
	} `json:"destination"`
}
