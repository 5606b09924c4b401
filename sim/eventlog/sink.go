package eventlog

// Sink receives the simulation event stream. The core calls Record at packet
// arrival, dispatch, transmission start, preemption, completion, and drop;
// it never reads the stream back. Record errors are fatal to the run.
type Sink interface {
	Record(Record) error
	Close() error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) Record(Record) error { return nil }
func (NopSink) Close() error        { return nil }

// MemorySink retains records in memory, for tests and small runs.
type MemorySink struct {
	Records []Record
}

func (m *MemorySink) Record(r Record) error {
	m.Records = append(m.Records, r)
	return nil
}

func (m *MemorySink) Close() error { return nil }

// ByEvent returns the retained records carrying the given event tag.
func (m *MemorySink) ByEvent(event string) []Record {
	var out []Record
	for _, r := range m.Records {
		if r.Event == event {
			out = append(out, r)
		}
	}
	return out
}
