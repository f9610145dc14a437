package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/darianmavgo/benchsql/converters/common"
)

// AutoDelimiter asks the CSV reader to detect the delimiter from the header line.
const AutoDelimiter = "auto"

// CSVColumns names the header cells read from each benchmark file.
type CSVColumns struct {
	Timestamp string `hcl:"timestamp,optional"`
	Metric    string `hcl:"metric,optional"`
	Value     string `hcl:"value,optional"`
}

// SQLColumns names the columns of the target table.
type SQLColumns struct {
	Timestamp  string `hcl:"timestamp,optional"`
	Metric     string `hcl:"metric,optional"`
	Value      string `hcl:"value,optional"`
	CommitHash string `hcl:"commit_hash,optional"`
	Platform   string `hcl:"platform,optional"`
	Repository string `hcl:"repository,optional"`
}

// Config represents the application configuration.
type Config struct {
	Table               string `hcl:"table,optional"`
	Extension           string `hcl:"extension,optional"`
	Driver              string `hcl:"driver,optional"` // Empty selects the driver by extension
	Delimiter           string `hcl:"delimiter,optional"`
	EscapeQuotes        bool   `hcl:"escape_quotes,optional"`
	SkipEmptyStatements bool   `hcl:"skip_empty_statements,optional"`

	CSV *CSVColumns `hcl:"csv_columns,block"`
	SQL *SQLColumns `hcl:"sql_columns,block"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	schema := common.DefaultSchema()
	return &Config{
		Table:     schema.Table,
		Extension: common.DefaultExtension,
		Delimiter: ",",
		CSV: &CSVColumns{
			Timestamp: schema.CSV.Timestamp,
			Metric:    schema.CSV.Metric,
			Value:     schema.CSV.Value,
		},
		SQL: &SQLColumns{
			Timestamp:  schema.SQL.Timestamp,
			Metric:     schema.SQL.Metric,
			Value:      schema.SQL.Value,
			CommitHash: schema.SQL.CommitHash,
			Platform:   schema.SQL.Platform,
			Repository: schema.SQL.Repository,
		},
	}
}

func overlay(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Load reads the configuration from the given HCL file.
// Attributes and blocks left out of the file keep their defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file: %s", diags.Error())
	}

	// gohcl replaces pointer blocks wholesale, so decode into a blank
	// value and overlay it on the defaults.
	var raw Config
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	cfg := DefaultConfig()
	overlay(&cfg.Table, raw.Table)
	overlay(&cfg.Extension, raw.Extension)
	overlay(&cfg.Driver, raw.Driver)
	overlay(&cfg.Delimiter, raw.Delimiter)
	cfg.EscapeQuotes = raw.EscapeQuotes
	cfg.SkipEmptyStatements = raw.SkipEmptyStatements
	if raw.CSV != nil {
		overlay(&cfg.CSV.Timestamp, raw.CSV.Timestamp)
		overlay(&cfg.CSV.Metric, raw.CSV.Metric)
		overlay(&cfg.CSV.Value, raw.CSV.Value)
	}
	if raw.SQL != nil {
		overlay(&cfg.SQL.Timestamp, raw.SQL.Timestamp)
		overlay(&cfg.SQL.Metric, raw.SQL.Metric)
		overlay(&cfg.SQL.Value, raw.SQL.Value)
		overlay(&cfg.SQL.CommitHash, raw.SQL.CommitHash)
		overlay(&cfg.SQL.Platform, raw.SQL.Platform)
		overlay(&cfg.SQL.Repository, raw.SQL.Repository)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// delimiter converts the configured delimiter to a rune; 0 means detect.
func (c *Config) delimiter() (rune, error) {
	if c.Delimiter == AutoDelimiter {
		return 0, nil
	}
	if c.Delimiter == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if r == utf8.RuneError || size != len(c.Delimiter) || r == '\r' || r == '\n' || r == '"' {
		return 0, fmt.Errorf("invalid delimiter %q: want a single character or %q", c.Delimiter, AutoDelimiter)
	}
	return r, nil
}

// Schema returns the table layout described by the configuration.
func (c *Config) Schema() common.Schema {
	return common.Schema{
		Table: c.Table,
		CSV: common.CSVColumns{
			Timestamp: c.CSV.Timestamp,
			Metric:    c.CSV.Metric,
			Value:     c.CSV.Value,
		},
		SQL: common.SQLColumns{
			Timestamp:  c.SQL.Timestamp,
			Metric:     c.SQL.Metric,
			Value:      c.SQL.Value,
			CommitHash: c.SQL.CommitHash,
			Platform:   c.SQL.Platform,
			Repository: c.SQL.Repository,
		},
	}
}

// Validate reports configuration values the converter cannot use.
func (c *Config) Validate() error {
	if _, err := c.delimiter(); err != nil {
		return err
	}
	if len(c.Extension) < 2 || c.Extension[0] != '.' {
		return fmt.Errorf("invalid extension %q: want a leading dot", c.Extension)
	}
	return common.ValidateSchema(c.Schema())
}

// ConversionConfig builds the converter settings for one run.
func (c *Config) ConversionConfig(meta common.RunMetadata) (*common.ConversionConfig, error) {
	delim, err := c.delimiter()
	if err != nil {
		return nil, err
	}
	return &common.ConversionConfig{
		Delimiter:           delim,
		Schema:              c.Schema(),
		Metadata:            meta,
		EscapeQuotes:        c.EscapeQuotes,
		SkipEmptyStatements: c.SkipEmptyStatements,
	}, nil
}

// Export writes the configuration to the specified file in HCL format.
func Export(path string, cfg *Config) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	root.SetAttributeValue("table", cty.StringVal(cfg.Table))
	root.SetAttributeValue("extension", cty.StringVal(cfg.Extension))
	if cfg.Driver != "" {
		root.SetAttributeValue("driver", cty.StringVal(cfg.Driver))
	}
	root.SetAttributeValue("delimiter", cty.StringVal(cfg.Delimiter))
	root.SetAttributeValue("escape_quotes", cty.BoolVal(cfg.EscapeQuotes))
	root.SetAttributeValue("skip_empty_statements", cty.BoolVal(cfg.SkipEmptyStatements))

	if cfg.CSV != nil {
		root.AppendNewline()
		csvBody := root.AppendNewBlock("csv_columns", nil).Body()
		csvBody.SetAttributeValue("timestamp", cty.StringVal(cfg.CSV.Timestamp))
		csvBody.SetAttributeValue("metric", cty.StringVal(cfg.CSV.Metric))
		csvBody.SetAttributeValue("value", cty.StringVal(cfg.CSV.Value))
	}

	if cfg.SQL != nil {
		root.AppendNewline()
		sqlBody := root.AppendNewBlock("sql_columns", nil).Body()
		sqlBody.SetAttributeValue("timestamp", cty.StringVal(cfg.SQL.Timestamp))
		sqlBody.SetAttributeValue("metric", cty.StringVal(cfg.SQL.Metric))
		sqlBody.SetAttributeValue("value", cty.StringVal(cfg.SQL.Value))
		sqlBody.SetAttributeValue("commit_hash", cty.StringVal(cfg.SQL.CommitHash))
		sqlBody.SetAttributeValue("platform", cty.StringVal(cfg.SQL.Platform))
		sqlBody.SetAttributeValue("repository", cty.StringVal(cfg.SQL.Repository))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(f.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write config to file: %w", err)
	}

	return nil
}
