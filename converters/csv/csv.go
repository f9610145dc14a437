package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/darianmavgo/benchsql/converters"
	"github.com/darianmavgo/benchsql/converters/common"
)

// ErrMissingColumn is returned when a row needs a column the header does not name.
var ErrMissingColumn = errors.New("CSV header is missing a required column")

func init() {
	converters.Register("csv", &csvDriver{}, ".csv", ".tsv")
}

type csvDriver struct{}

func (d *csvDriver) Open(source io.Reader, config *common.ConversionConfig) (common.Converter, error) {
	c, err := NewBenchmarkConverter(source, config)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// columnIndex maps the configured CSV column names to header positions.
// A value of -1 means the header does not contain the column.
type columnIndex struct {
	timestamp int
	metric    int
	value     int
}

// indexOf returns the last position of name, so a repeated header cell
// resolves to its rightmost column.
func indexOf(headers []string, name string) int {
	for i := len(headers) - 1; i >= 0; i-- {
		if headers[i] == name {
			return i
		}
	}
	return -1
}

// BenchmarkConverter reads benchmark result rows from a CSV stream.
type BenchmarkConverter struct {
	headers   []string
	index     columnIndex
	csvReader *csv.Reader
	Config    common.ConversionConfig
}

// Ensure BenchmarkConverter implements Converter
var _ common.Converter = (*BenchmarkConverter)(nil)

// NewBenchmarkConverter creates a BenchmarkConverter from an io.Reader.
// The first record is consumed as the header. An empty source yields a
// converter with no header and no rows.
// Note: ScanRecords can only be called once.
func NewBenchmarkConverter(r io.Reader, config *common.ConversionConfig) (*BenchmarkConverter, error) {
	if config == nil {
		config = common.DefaultConversionConfig(common.RunMetadata{})
	}
	cfg := *config

	br := bufio.NewReaderSize(r, 65536)

	// Detect delimiter if not set
	if cfg.Delimiter == 0 {
		peekBytes, _ := br.Peek(2048)
		sample := string(peekBytes)
		if idx := strings.IndexAny(sample, "\r\n"); idx != -1 {
			sample = sample[:idx]
		}
		cfg.Delimiter = common.DetectDelimiter(sample)
	}

	reader := csv.NewReader(br)
	reader.Comma = cfg.Delimiter
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) > 0 {
		// A UTF-8 byte order mark would otherwise stick to the first column name
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	return &BenchmarkConverter{
		headers: headers,
		index: columnIndex{
			timestamp: indexOf(headers, cfg.Schema.CSV.Timestamp),
			metric:    indexOf(headers, cfg.Schema.CSV.Metric),
			value:     indexOf(headers, cfg.Schema.CSV.Value),
		},
		csvReader: reader,
		Config:    cfg,
	}, nil
}

// Headers implements RecordProvider
func (c *BenchmarkConverter) Headers() []string {
	return c.headers
}

func field(row []string, idx int) common.Field {
	if idx < 0 || idx >= len(row) {
		return common.Field{}
	}
	return common.Field{Value: row[idx], Present: true}
}

// toRecord maps a raw row onto the configured columns. Cells past the
// header width are kept in Extra.
func (c *BenchmarkConverter) toRecord(row []string) (common.Record, error) {
	if c.index.metric < 0 {
		return common.Record{}, fmt.Errorf("%w: %q", ErrMissingColumn, c.Config.Schema.CSV.Metric)
	}

	rec := common.Record{
		Timestamp: field(row, c.index.timestamp),
		Metric:    field(row, c.index.metric),
		Value:     field(row, c.index.value),
	}
	if len(row) > len(c.headers) {
		rec.Extra = row[len(c.headers):]
	}

	if rec.Qualifies() {
		if c.index.timestamp < 0 {
			return common.Record{}, fmt.Errorf("%w: %q", ErrMissingColumn, c.Config.Schema.CSV.Timestamp)
		}
		if c.index.value < 0 {
			return common.Record{}, fmt.Errorf("%w: %q", ErrMissingColumn, c.Config.Schema.CSV.Value)
		}
	}
	return rec, nil
}

// ScanRecords implements RecordProvider. Rows are yielded in file order.
func (c *BenchmarkConverter) ScanRecords(ctx context.Context, yield func(common.Record) error) error {
	if c.csvReader == nil {
		return fmt.Errorf("CSV reader is not initialized")
	}
	if len(c.headers) == 0 {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := c.csvReader.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read CSV row: %w", err)
		}
		rec, err := c.toRecord(row)
		if err != nil {
			line, _ := c.csvReader.FieldPos(0)
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := yield(rec); err != nil {
			return err
		}
	}
}

// ConvertToSQL implements StreamConverter: it writes one INSERT statement
// covering every qualifying row of the source.
func (c *BenchmarkConverter) ConvertToSQL(ctx context.Context, writer io.Writer) (common.ConvertStats, error) {
	sw := common.NewStatementWriter(writer, &c.Config)
	err := c.ScanRecords(ctx, func(rec common.Record) error {
		_, err := sw.WriteRecord(rec)
		return err
	})
	if err == nil {
		err = sw.End()
	}
	return common.ConvertStats{Rows: sw.Rows(), Tuples: sw.Tuples()}, err
}
