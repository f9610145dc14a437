// Command benchsql converts a directory of benchmark result CSV files into a
// SQL script that inserts every result into the BenchmarkResults table.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/darianmavgo/benchsql/config"
	"github.com/darianmavgo/benchsql/converters"
	_ "github.com/darianmavgo/benchsql/converters/all"
	"github.com/darianmavgo/benchsql/converters/common"
	"github.com/darianmavgo/benchsql/logging"
)

const (
	flagCSVDirectory  = "csv-directory"
	flagSQLScriptFile = "sql-script-file"
	flagCommitID      = "commit_id"
	flagPlatform      = "platform"
	flagRepository    = "repository"
)

var requiredFlags = []string{flagCSVDirectory, flagSQLScriptFile, flagCommitID, flagPlatform, flagRepository}

type options struct {
	csvDirectory  string
	sqlScriptFile string
	commitID      string
	platform      string
	repository    string

	configPath string
	logLevel   string
	logFormat  string
}

func addFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.csvDirectory, flagCSVDirectory, "", "Directory to scan for *.csv benchmark results")
	fs.StringVar(&o.sqlScriptFile, flagSQLScriptFile, "", "Output path for the generated SQL script (overwritten)")
	fs.StringVar(&o.commitID, flagCommitID, "", "Commit identifier stamped on every row")
	fs.StringVar(&o.platform, flagPlatform, "", "Platform name stamped on every row")
	fs.StringVar(&o.repository, flagRepository, "", "Repository name stamped on every row")

	fs.StringVar(&o.configPath, "config", "", "Optional HCL file overriding table, column names and output policy")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "console", "Log format (console, json)")
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "benchsql",
		Short: "Convert benchmark result CSV files into a SQL insert script",
		Long: `benchsql reads every CSV file in a directory and writes one INSERT statement
per file into a SQL script. Each row with a non-empty Test column becomes a
BenchmarkResults tuple stamped with the commit, platform and repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags parsed fine; further errors are not usage errors
			cmd.SilenceUsage = true
			return run(cmd.Context(), o, cmd.ErrOrStderr())
		},
	}

	addFlags(cmd.Flags(), o)
	for _, name := range requiredFlags {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(newInitConfigCmd())
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config <path>",
		Short: "Write the default configuration to an HCL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := config.Export(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", args[0])
			return nil
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, o *options, logOutput io.Writer) error {
	logger, err := logging.New(logging.Config{
		Level:  o.logLevel,
		Format: o.logFormat,
		Output: logOutput,
	})
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx)

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}

	conv, err := cfg.ConversionConfig(common.RunMetadata{
		CommitID:   o.commitID,
		Platform:   o.platform,
		Repository: o.repository,
	})
	if err != nil {
		return err
	}

	_, err = converters.ConvertDirectory(ctx, o.csvDirectory, o.sqlScriptFile, conv, &converters.ExportOptions{
		Driver:    cfg.Driver,
		Extension: cfg.Extension,
	})
	return err
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
