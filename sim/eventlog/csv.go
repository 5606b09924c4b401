package eventlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// csvColumns is the fixed header; the column layout is what the downstream
// analysis notebooks parse, so it never changes shape.
var csvColumns = []string{
	"time", "device_id", "packet_id", "event",
	"latency", "percentile_latency", "throughput",
	"reliability", "aoi", "sinr", "fairness", "data_rate",
}

// metricColumns are the csvColumns entries that map to Record.Metrics keys.
var metricColumns = csvColumns[4:]

// CSVSink writes one CSV row per record and flushes after every write, so a
// crashed run still leaves a usable log. Close releases the file handle;
// records after Close fail.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink creates the file (truncating an existing one) and writes the
// header row.
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating event log: %w", err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvColumns); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing event log header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return nil, fmt.Errorf("flushing event log header: %w", err)
	}
	return &CSVSink{file: file, writer: writer}, nil
}

// Record appends one row. Metric fields absent from the record render as
// empty cells.
func (s *CSVSink) Record(r Record) error {
	if s.writer == nil {
		return fmt.Errorf("event log closed")
	}
	row := make([]string, 0, len(csvColumns))
	row = append(row,
		strconv.FormatFloat(r.Time, 'f', 6, 64),
		strconv.Itoa(r.DeviceID),
		strconv.FormatInt(r.PacketID, 10),
		r.Event,
	)
	for _, col := range metricColumns {
		if v, ok := r.Metrics[col]; ok {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		} else {
			row = append(row, "")
		}
	}
	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("writing event log row: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flushing event log: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	if s.writer == nil {
		return nil
	}
	s.writer.Flush()
	err := s.writer.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.writer = nil
	s.file = nil
	return err
}
