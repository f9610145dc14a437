package common

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// NullLiteral is written in place of a cell the source row did not have.
const NullLiteral = "NULL"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var ErrInvalidSchema = errors.New("invalid schema")

// ValidateSchema checks that the table and column names can be written into
// an INSERT header unquoted and that the CSV columns are distinguishable.
func ValidateSchema(s Schema) error {
	names := append([]string{s.Table}, s.SQL.List()...)
	for _, name := range names {
		if !identifier.MatchString(name) {
			return fmt.Errorf("%w: %q is not a plain SQL identifier", ErrInvalidSchema, name)
		}
	}

	seen := make(map[string]bool, 3)
	for _, name := range []string{s.CSV.Timestamp, s.CSV.Metric, s.CSV.Value} {
		if name == "" {
			return fmt.Errorf("%w: empty CSV column name", ErrInvalidSchema)
		}
		if seen[name] {
			return fmt.Errorf("%w: CSV column %q mapped twice", ErrInvalidSchema, name)
		}
		seen[name] = true
	}
	return nil
}

// GenInsertHeader generates the column list line and VALUES keyword of an INSERT statement.
func GenInsertHeader(table string, columns []string) string {
	var builder strings.Builder
	builder.Grow(len(table) + len(columns)*16 + 24)

	builder.WriteString("INSERT INTO ")
	builder.WriteString(table)
	builder.WriteString(" (")
	builder.WriteString(strings.Join(columns, ", "))
	builder.WriteString(")\nVALUES\n")
	return builder.String()
}

// QuoteLiteral wraps val in single quotes. Embedded quotes are doubled only
// when escape is set; otherwise the value is written verbatim.
func QuoteLiteral(val string, escape bool) string {
	if escape {
		val = strings.ReplaceAll(val, "'", "''")
	}
	return "'" + val + "'"
}

// GenValueTuple renders one record as a parenthesized VALUES tuple.
// Value is written unquoted; absent cells become NULL.
func GenValueTuple(rec Record, meta RunMetadata, escape bool) string {
	ts := NullLiteral
	if rec.Timestamp.Present {
		ts = QuoteLiteral(rec.Timestamp.Value, escape)
	}
	val := NullLiteral
	if rec.Value.Present {
		val = rec.Value.Value
	}

	var builder strings.Builder
	builder.WriteByte('(')
	builder.WriteString(ts)
	builder.WriteString(", ")
	builder.WriteString(QuoteLiteral(rec.Metric.Value, escape))
	builder.WriteString(", ")
	builder.WriteString(val)
	builder.WriteString(", ")
	builder.WriteString(QuoteLiteral(meta.CommitID, escape))
	builder.WriteString(", ")
	builder.WriteString(QuoteLiteral(meta.Platform, escape))
	builder.WriteByte(',')
	builder.WriteString(QuoteLiteral(meta.Repository, escape))
	builder.WriteByte(')')
	return builder.String()
}

// StatementWriter assembles a single INSERT statement from a stream of records.
// Begin is implicit: the header is written with the first tuple, or by End
// when the statement has no tuples.
type StatementWriter struct {
	w       io.Writer
	config  *ConversionConfig
	started bool
	rows    int
	tuples  int
}

// NewStatementWriter creates a StatementWriter that writes to w.
func NewStatementWriter(w io.Writer, config *ConversionConfig) *StatementWriter {
	return &StatementWriter{w: w, config: config}
}

func (s *StatementWriter) begin() error {
	if s.started {
		return nil
	}
	s.started = true
	header := GenInsertHeader(s.config.Schema.Table, s.config.Schema.SQL.List())
	if _, err := io.WriteString(s.w, header); err != nil {
		return fmt.Errorf("failed to write INSERT header: %w", err)
	}
	return nil
}

// WriteRecord writes the tuple for rec, or nothing if rec does not qualify.
// It reports whether a tuple was written.
func (s *StatementWriter) WriteRecord(rec Record) (bool, error) {
	s.rows++
	if !rec.Qualifies() {
		return false, nil
	}
	if err := s.begin(); err != nil {
		return false, err
	}

	if s.tuples > 0 {
		if _, err := io.WriteString(s.w, ",\n"); err != nil {
			return false, fmt.Errorf("failed to write tuple separator: %w", err)
		}
	}
	tuple := GenValueTuple(rec, s.config.Metadata, s.config.EscapeQuotes)
	if _, err := io.WriteString(s.w, tuple); err != nil {
		return false, fmt.Errorf("failed to write tuple: %w", err)
	}
	s.tuples++
	return true, nil
}

// End terminates the statement.
func (s *StatementWriter) End() error {
	if s.tuples == 0 && s.config.SkipEmptyStatements {
		return nil
	}
	if err := s.begin(); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, ";\n"); err != nil {
		return fmt.Errorf("failed to write statement end: %w", err)
	}
	return nil
}

// Rows returns the number of records seen, qualifying or not.
func (s *StatementWriter) Rows() int { return s.rows }

// Tuples returns the number of tuples written.
func (s *StatementWriter) Tuples() int { return s.tuples }
