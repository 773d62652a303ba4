package metrics

import coremetrics "github.com/SonJH7/status-allocation-berths/core/metrics"

// MultiSink fans one event out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.EditSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.EditSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEdit forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordEdit(ev coremetrics.EditEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordEdit(ev); err != nil {
			return err
		}
	}
	return nil
}
