package common

import (
	"strings"
)

const (
	DefaultTable     = "BenchmarkResults"
	DefaultExtension = ".csv"
)

// CSVColumns names the header cells the converter reads.
type CSVColumns struct {
	Timestamp string
	Metric    string
	Value     string
}

// SQLColumns names the target table columns, in tuple order.
type SQLColumns struct {
	Timestamp  string
	Metric     string
	Value      string
	CommitHash string
	Platform   string
	Repository string
}

// List returns the column names in tuple order.
func (c SQLColumns) List() []string {
	return []string{c.Timestamp, c.Metric, c.Value, c.CommitHash, c.Platform, c.Repository}
}

// Schema ties the source CSV layout to the target table.
type Schema struct {
	Table string
	CSV   CSVColumns
	SQL   SQLColumns
}

// DefaultSchema returns the BenchmarkResults layout produced by the benchmark runner.
func DefaultSchema() Schema {
	return Schema{
		Table: DefaultTable,
		CSV: CSVColumns{
			Timestamp: "Timestamp",
			Metric:    "Test",
			Value:     "Average Duration (ns)",
		},
		SQL: SQLColumns{
			Timestamp:  "Timestamp",
			Metric:     "Metric",
			Value:      "Value",
			CommitHash: "CommitHash",
			Platform:   "Platform",
			Repository: "Repository",
		},
	}
}

// RunMetadata is stamped onto every tuple of a run.
type RunMetadata struct {
	CommitID   string
	Platform   string
	Repository string
}

// ConversionConfig stores configuration options for the conversion process.
type ConversionConfig struct {
	Delimiter           rune // Delimiter used for CSV parsing; 0 means detect
	Schema              Schema
	Metadata            RunMetadata
	EscapeQuotes        bool // Double embedded single quotes in literals
	SkipEmptyStatements bool // Omit statements for files with no qualifying rows
}

// DefaultConversionConfig returns a comma-delimited config for the default schema.
func DefaultConversionConfig(meta RunMetadata) *ConversionConfig {
	return &ConversionConfig{
		Delimiter: ',',
		Schema:    DefaultSchema(),
		Metadata:  meta,
	}
}

// DetectDelimiter attempts to detect the delimiter from a raw line of text.
// It checks common delimiters and returns the one that produces the most fields.
// Defaults to comma if line is empty or no clear winner.
func DetectDelimiter(line string) rune {
	if line == "" {
		return ','
	}

	delimiters := []rune{',', '\t', ';', '|'}
	maxCount := -1
	winner := ','

	for _, delim := range delimiters {
		count := strings.Count(line, string(delim))
		if count > maxCount {
			maxCount = count
			winner = delim
		}
	}

	return winner
}
