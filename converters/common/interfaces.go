package common

import (
	"context"
	"io"
)

// Field is a single cell pulled from a source row.
// Present is false when the row was shorter than the header.
type Field struct {
	Value   string
	Present bool
}

// Record is one typed benchmark result row.
type Record struct {
	Timestamp Field
	Metric    Field
	Value     Field
	Extra     []string // Cells beyond the header width
}

// Qualifies reports whether the record contributes a tuple to the script.
func (r Record) Qualifies() bool {
	return r.Metric.Present && r.Metric.Value != ""
}

// RecordProvider defines the interface for providing benchmark records in source order.
type RecordProvider interface {
	Headers() []string
	// ScanRecords iterates over records in input order.
	// If yield returns an error, iteration stops and that error is returned.
	ScanRecords(ctx context.Context, yield func(Record) error) error
}

// ConvertStats counts what one ConvertToSQL call read and wrote.
type ConvertStats struct {
	Rows   int // Data rows read
	Tuples int // VALUES tuples written
}

// StreamConverter defines the interface for converting a source to SQL output.
// On error the stats cover what was written before the failure.
type StreamConverter interface {
	ConvertToSQL(ctx context.Context, writer io.Writer) (ConvertStats, error)
}

// Converter is what a driver opens for one source.
type Converter interface {
	RecordProvider
	StreamConverter
}

// Driver defines the interface that must be implemented by a converter package.
type Driver interface {
	// Open returns a new Converter for the given input.
	Open(source io.Reader, config *ConversionConfig) (Converter, error)
}
