package metrics

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordDispatch(ev DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary forwards to sinks implementing RunSummaryRecorder.
func (m *MultiSink) RecordRunSummary(sum RunSummary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RunSummaryRecorder); ok {
			if err := rec.RecordRunSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResourceUsage forwards to sinks implementing ResourceUsageRecorder.
func (m *MultiSink) RecordResourceUsage(u []ResourceUsage) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ResourceUsageRecorder); ok {
			if err := rec.RecordResourceUsage(u); err != nil {
				return err
			}
		}
	}
	return nil
}
