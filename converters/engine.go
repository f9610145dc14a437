package converters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/darianmavgo/benchsql/converters/common"
	"github.com/darianmavgo/benchsql/converters/filesystem"
)

// ExportOptions defines configuration for the export process.
type ExportOptions struct {
	Driver    string // Registered driver used for every file; empty selects by file extension
	Extension string // Extension discovered by ConvertDirectory; defaults to ".csv"
}

// driverFor picks the driver for one source file.
func (o *ExportOptions) driverFor(path string) (string, error) {
	if o != nil && o.Driver != "" {
		return o.Driver, nil
	}
	return DriverForPath(path)
}

func (o *ExportOptions) extension() string {
	if o == nil || o.Extension == "" {
		return common.DefaultExtension
	}
	return o.Extension
}

// ExportSummary reports what an export wrote.
type ExportSummary struct {
	Files  int // Source files converted
	Rows   int // Data rows read
	Tuples int // VALUES tuples written
}

// Skipped returns the number of rows that did not qualify for a tuple.
func (s *ExportSummary) Skipped() int {
	return s.Rows - s.Tuples
}

// ExportScript converts each path in order and appends one INSERT statement
// per file to writer. The first failure aborts the export; statements
// already written are left in writer.
func ExportScript(ctx context.Context, paths []string, writer io.Writer, config *common.ConversionConfig, opts *ExportOptions) (*ExportSummary, error) {
	if config == nil {
		return nil, fmt.Errorf("conversion config is required")
	}
	if err := common.ValidateSchema(config.Schema); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	summary := &ExportSummary{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		driverName, err := opts.driverFor(path)
		if err != nil {
			return summary, fmt.Errorf("failed to convert %s: %w", path, err)
		}
		stats, err := exportFile(ctx, path, writer, config, driverName)
		if err != nil {
			return summary, fmt.Errorf("failed to convert %s: %w", path, err)
		}

		summary.Files++
		summary.Rows += stats.Rows
		summary.Tuples += stats.Tuples
		logger.Debug().
			Str("file", path).
			Str("driver", driverName).
			Int("rows", stats.Rows).
			Int("tuples", stats.Tuples).
			Msg("converted file")
	}
	return summary, nil
}

// exportFile writes the statement for a single source file.
func exportFile(ctx context.Context, path string, writer io.Writer, config *common.ConversionConfig, driverName string) (common.ConvertStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return common.ConvertStats{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	conv, err := Open(driverName, file, config)
	if err != nil {
		return common.ConvertStats{}, fmt.Errorf("failed to initialize converter: %w", err)
	}

	// Clean up converter resources if it implements io.Closer
	if c, ok := conv.(io.Closer); ok {
		defer c.Close()
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", path).
		Strs("headers", conv.Headers()).
		Msg("read header")

	return conv.ConvertToSQL(ctx, writer)
}

// ConvertDirectory discovers the source files in dir and writes the combined
// script to outputPath, replacing any existing file. The output file is
// created only after discovery succeeds.
func ConvertDirectory(ctx context.Context, dir, outputPath string, config *common.ConversionConfig, opts *ExportOptions) (summary *ExportSummary, err error) {
	logger := zerolog.Ctx(ctx)

	ext := opts.extension()
	// Fail before touching the output when no driver handles the extension
	if _, err := opts.driverFor("*" + ext); err != nil {
		return nil, err
	}

	paths, err := filesystem.Discover(dir, ext)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("dir", dir).Int("files", len(paths)).Msg("discovered source files")

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := outputFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	bw := bufio.NewWriterSize(outputFile, 65536)
	summary, err = ExportScript(ctx, paths, bw, config, opts)
	// Flush on failure too: a partial script stays on disk
	if ferr := bw.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("failed to write output file: %w", ferr)
	}
	if err != nil {
		return summary, err
	}

	logger.Info().
		Str("output", outputPath).
		Int("files", summary.Files).
		Int("rows", summary.Rows).
		Int("tuples", summary.Tuples).
		Int("skipped", summary.Skipped()).
		Msg("wrote SQL script")
	return summary, nil
}
