// Package eventlog provides the append-only event stream the simulation core
// produces to. This package has no dependencies on sim/ — it stores pure
// data types and sink implementations.
package eventlog

// Record is one entry of the event stream. Metrics carries the optional
// metric fields present on this record; absent keys render as blanks.
type Record struct {
	Time     float64
	DeviceID int   // -1 for global events (interference, run summary)
	PacketID int64 // -1 for summaries
	Event    string
	Metrics  map[string]float64
}
