package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunWritesScript(t *testing.T) {
	dir := t.TempDir()
	csvContent := "Timestamp,Test,Average Duration (ns)\n2024-01-01T00:00:00,mytest,123\n2024-01-01T00:00:01,,456\n"
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte(csvContent), 0644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}
	outputPath := filepath.Join(t.TempDir(), "results.sql")

	logs, err := execute(t,
		"--csv-directory", dir,
		"--sql-script-file", outputPath,
		"--commit_id", "abc123",
		"--platform", "linux-x64",
		"--repository", "myrepo",
	)
	if err != nil {
		t.Fatalf("Execute failed: %v\n%s", err, logs)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read script: %v", err)
	}
	want := "INSERT INTO BenchmarkResults (Timestamp, Metric, Value, CommitHash, Platform, Repository)\nVALUES\n" +
		"('2024-01-01T00:00:00', 'mytest', 123, 'abc123', 'linux-x64','myrepo');\n"
	if string(content) != want {
		t.Errorf("script = %q, want %q", content, want)
	}
	if !strings.Contains(logs, "wrote SQL script") {
		t.Errorf("expected summary log line, got %q", logs)
	}
}

func TestMissingRequiredFlags(t *testing.T) {
	out, err := execute(t, "--csv-directory", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing required flags")
	}
	for _, name := range []string{"sql-script-file", "commit_id", "platform", "repository"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage in output, got %q", out)
	}
}

func TestMissingDirectory(t *testing.T) {
	outDir := t.TempDir()
	out, err := execute(t,
		"--csv-directory", filepath.Join(outDir, "missing"),
		"--sql-script-file", filepath.Join(outDir, "results.sql"),
		"--commit_id", "abc123",
		"--platform", "linux-x64",
		"--repository", "myrepo",
	)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if strings.Contains(out, "Usage:") {
		t.Errorf("runtime failure should not print usage: %q", out)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "results.sql")); !os.IsNotExist(statErr) {
		t.Errorf("output file should not be created, stat err = %v", statErr)
	}
}

func TestConfigFileOverridesSchema(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("when;name;ns\nt;it's;9\n"), 0644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "benchsql.hcl")
	configContent := `
table         = "Results"
delimiter     = "auto"
escape_quotes = true

csv_columns {
  timestamp = "when"
  metric    = "name"
  value     = "ns"
}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	outputPath := filepath.Join(t.TempDir(), "results.sql")

	logs, err := execute(t,
		"--csv-directory", dir,
		"--sql-script-file", outputPath,
		"--commit_id", "abc123",
		"--platform", "linux-x64",
		"--repository", "myrepo",
		"--config", configPath,
		"--log-format", "json",
		"--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("Execute failed: %v\n%s", err, logs)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read script: %v", err)
	}
	want := "INSERT INTO Results (Timestamp, Metric, Value, CommitHash, Platform, Repository)\nVALUES\n" +
		"('t', 'it''s', 9, 'abc123', 'linux-x64','myrepo');\n"
	if string(content) != want {
		t.Errorf("script = %q, want %q", content, want)
	}
	if !strings.Contains(logs, `"message":"converted file"`) {
		t.Errorf("expected debug log per file, got %q", logs)
	}
}

func TestConfigDriverForCustomExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "run.dat"), []byte("Timestamp,Test,Average Duration (ns)\nt,m,1\n"), 0644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}
	args := func(configPath, outputPath string) []string {
		return []string{
			"--csv-directory", dir,
			"--sql-script-file", outputPath,
			"--commit_id", "abc123",
			"--platform", "linux-x64",
			"--repository", "myrepo",
			"--config", configPath,
		}
	}

	noDriver := filepath.Join(t.TempDir(), "benchsql.hcl")
	if err := os.WriteFile(noDriver, []byte(`extension = ".dat"`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := execute(t, args(noDriver, filepath.Join(t.TempDir(), "out.sql"))...); err == nil {
		t.Error("expected error when no driver handles .dat")
	}

	withDriver := filepath.Join(t.TempDir(), "benchsql.hcl")
	if err := os.WriteFile(withDriver, []byte("extension = \".dat\"\ndriver = \"csv\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	outputPath := filepath.Join(t.TempDir(), "out.sql")
	if logs, err := execute(t, args(withDriver, outputPath)...); err != nil {
		t.Fatalf("Execute failed: %v\n%s", err, logs)
	}
	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read script: %v", err)
	}
	if !strings.Contains(string(content), "('t', 'm', 1, 'abc123', 'linux-x64','myrepo');") {
		t.Errorf("unexpected script: %q", content)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t,
		"--csv-directory", t.TempDir(),
		"--sql-script-file", filepath.Join(t.TempDir(), "results.sql"),
		"--commit_id", "abc123",
		"--platform", "linux-x64",
		"--repository", "myrepo",
		"--log-level", "loud",
	)
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchsql.hcl")
	out, err := execute(t, "init-config", path)
	if err != nil {
		t.Fatalf("init-config failed: %v\n%s", err, out)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	for _, want := range []string{"BenchmarkResults", "csv_columns", "Average Duration (ns)", "sql_columns"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("config missing %q:\n%s", want, content)
		}
	}
}
