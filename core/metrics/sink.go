package metrics

import "time"

// Edit operations recorded by sinks.
const (
	OpEdit   = "edit"
	OpIngest = "ingest"
	OpRevert = "revert"
)

// Edit outcomes recorded by sinks.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
)

// EditEvent captures one schedule operation and its result.
type EditEvent struct {
	Op        string        `json:"op"`
	Outcome   string        `json:"outcome"`
	Reason    string        `json:"reason,omitempty"`
	VersionID string        `json:"version_id,omitempty"`
	Berth     string        `json:"berth,omitempty"`
	Latency   time.Duration `json:"latency"`
	Timestamp time.Time     `json:"timestamp"`
}

// EditSink receives schedule operation events.
type EditSink interface {
	RecordEdit(EditEvent) error
}

// NopSink discards all events.
type NopSink struct{}

// RecordEdit implements EditSink.
func (NopSink) RecordEdit(EditEvent) error { return nil }
