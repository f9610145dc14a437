//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles the benchsql binary into the bin/ directory.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", "./bin/benchsql", "./cmd/benchsql")
}

// Install copies the benchsql binary to /usr/local/bin.
func Install() error {
	mg.Deps(Build)
	fmt.Println("Installing...")
	return sh.Run("cp", "bin/benchsql", "/usr/local/bin/benchsql")
}

// Test runs all tests in the project with verbose output.
func Test() error {
	fmt.Println("Running Tests...")
	return sh.Run("go", "test", "-v", "./...")
}

// Bench runs the converter benchmarks.
func Bench() error {
	fmt.Println("Running Benchmarks...")
	return sh.Run("go", "test", "-run", "^$", "-bench", ".", "-benchmem", "./converters/...")
}

// Config writes the default configuration to benchsql.hcl.
func Config() error {
	mg.Deps(Build)
	return sh.Run("./bin/benchsql", "init-config", "benchsql.hcl")
}

// Clean removes the bin directory.
func Clean() error {
	fmt.Println("Cleaning...")
	return os.RemoveAll("bin")
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Check runs formatting and linting checks (fmt, vet).
func Check() error {
	mg.Deps(Fmt, Vet)
	return nil
}

// Fmt runs go fmt ./...
func Fmt() error {
	fmt.Println("Running go fmt...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet ./...
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}
