package domain

import "time"

// Sample is one recorded setpoint write.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}

// Series is the recorded history of a single setpoint parameter.
type Series struct {
	Parameter  string   `json:"parameter"`
	SourceFile string   `json:"source_file,omitempty"`
	Samples    []Sample `json:"samples"`
}

// AlignedSample carries the elapsed process time relative to the run origin.
type AlignedSample struct {
	Sample
	ProcessHours float64 `json:"process_time_hours"`
}

// RunData is everything a source knows about one fermentation run.
type RunData struct {
	Series     []Series
	Boundaries RunBoundaries
}
