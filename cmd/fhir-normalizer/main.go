// Package main implements the fhir-normalizer CLI tool.
// It normalizes coded values, clinical dates and TNM staging in FHIR bundles.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofhir/normalizer/bundle"
	"github.com/gofhir/normalizer/engine"
	"github.com/gofhir/normalizer/loader"
	"github.com/gofhir/normalizer/pkg/codemap"
	"github.com/gofhir/normalizer/pkg/logger"
	"github.com/gofhir/normalizer/pkg/tnm"
	"github.com/gofhir/normalizer/worker"
)

const (
	version = "0.1.0"
	usage   = `fhir-normalizer - FHIR Clinical Data Normalizer

Usage:
  fhir-normalizer [options] <bundle>...
  fhir-normalizer [options] -            (read from stdin)
  cat bundle.json | fhir-normalizer -    (pipe input)

Examples:
  fhir-normalizer -mappings mappings.yaml bundle.json
  fhir-normalizer -mappings mappings.json -tnm-table snomed.yaml bundle.json
  fhir-normalizer -output json bundle.json
  fhir-normalizer -date 1953-10
  fhir-normalizer -stage "cT3 cN1 cM0"
  fhir-normalizer *.json
  cat bundle.json | fhir-normalizer -

Options:
`
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration
type Config struct {
	Mappings    string
	TNMTable    string
	Date        string
	Stage       string
	Output      OutputFormat
	Workers     int
	NoCheck     bool
	Quiet       bool
	Verbose     bool
	ShowVersion bool
	Help        bool
	Files       []string
}

// ScanOutput represents the JSON output structure for one bundle
type ScanOutput struct {
	Bundle   string        `json:"bundle"`
	Entries  []EntryOutput `json:"entries,omitempty"`
	Stage    string        `json:"stage,omitempty"`
	Status   string        `json:"stageStatus,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration string        `json:"duration"`
}

// EntryOutput represents a single bundle entry in JSON output
type EntryOutput struct {
	Index        int               `json:"index"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceId,omitempty"`
	Profiles     []string          `json:"profiles,omitempty"`
	Dates        map[string]string `json:"dates,omitempty"`
	Error        string            `json:"error,omitempty"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("fhir-normalizer v%s\n", version)
		os.Exit(0)
	}

	if config.Help || (len(config.Files) == 0 && config.Date == "" && config.Stage == "") {
		flag.Usage()
		os.Exit(0)
	}

	exitCode := run(config)
	os.Exit(exitCode)
}

func parseFlags() *Config {
	config := &Config{
		Output: OutputText,
	}

	var output string

	flag.StringVar(&config.Mappings, "mappings", "", "Code-to-profile mapping file (JSON or YAML)")
	flag.StringVar(&config.TNMTable, "tnm-table", "", "TNM category table file layered over the built-in AJCC codes")
	flag.StringVar(&config.Date, "date", "", "Parse a single clinical date and exit")
	flag.StringVar(&config.Stage, "stage", "", "Classify a TNM string (e.g. 'cT3 cN1 cM0') and exit")
	flag.StringVar(&output, "output", "text", "Output format: text, json")
	flag.IntVar(&config.Workers, "workers", 1, "Number of bundles to scan in parallel")
	flag.BoolVar(&config.NoCheck, "no-check", false, "Accept staging observations without matching code and value categories")
	flag.BoolVar(&config.Quiet, "quiet", false, "Only show errors")
	flag.BoolVar(&config.Verbose, "verbose", false, "Show detailed output")
	flag.BoolVar(&config.ShowVersion, "v", false, "Show version")
	flag.BoolVar(&config.Help, "help", false, "Show help")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	// Parse output format
	switch strings.ToLower(output) {
	case "json":
		config.Output = OutputJSON
	default:
		config.Output = OutputText
	}

	// Remaining arguments are bundle files
	config.Files = flag.Args()

	return config
}

func run(config *Config) int {
	if config.Verbose {
		logger.Default().SetLevel(logger.LevelDebug)
	} else if config.Quiet {
		logger.Default().SetLevel(logger.LevelError)
	}

	mappings := codemap.ProfileMappings{}
	if config.Mappings != "" {
		loaded, err := loader.LoadProfileMappings(config.Mappings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to load mappings: %v\n", err)
			return 1
		}
		mappings = loaded
	}

	opts := []engine.Option{}

	if config.TNMTable != "" {
		table, err := loader.LoadTNMTable(config.TNMTable)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to load TNM table: %v\n", err)
			return 1
		}
		opts = append(opts, engine.WithTNMTable(table))
	}

	if config.NoCheck {
		opts = append(opts, engine.WithCheckCodes(false))
	}

	n, err := engine.New(mappings, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize normalizer: %v\n", err)
		return 1
	}

	// One-shot utility modes
	if config.Date != "" {
		return runDate(n, config)
	}
	if config.Stage != "" {
		return runStage(n, config)
	}

	// Expand glob patterns up front so parallel and sequential runs see
	// the same file list.
	paths, hasErrors := expandFiles(config.Files)

	var outputs []ScanOutput
	if config.Workers > 1 {
		batchOutputs, batchHasErrors := scanBatch(n, paths, config)
		outputs = batchOutputs
		hasErrors = hasErrors || batchHasErrors
	} else {
		outputs = make([]ScanOutput, 0, len(paths))
		for _, path := range paths {
			var output ScanOutput
			var fileHasErrors bool
			if path == "-" {
				output, fileHasErrors = scanReader(n, os.Stdin, "stdin", config)
			} else {
				output, fileHasErrors = scanFile(n, path, config)
			}
			outputs = append(outputs, output)
			if fileHasErrors {
				hasErrors = true
			}
		}
	}

	// Output JSON if requested
	if config.Output == OutputJSON {
		jsonOutput, _ := json.MarshalIndent(outputs, "", "  ")
		fmt.Println(string(jsonOutput))
	}

	if hasErrors {
		return 1
	}
	return 0
}

func runDate(n *engine.Normalizer, config *Config) int {
	instant, err := n.ParseDate(config.Date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if config.Output == OutputJSON {
		out := map[string]any{
			"input":    config.Date,
			"utc":      instant.Time.Format(time.RFC3339),
			"accuracy": instant.Accuracy.String(),
		}
		if instant.LeapSecond {
			out["leapSecond"] = true
		}
		jsonOutput, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonOutput))
		return 0
	}

	fmt.Printf("%s (accuracy: %s)\n", instant.Time.Format(time.RFC3339), instant.Accuracy)
	if instant.LeapSecond {
		fmt.Println("leap second clamped to :59")
	}
	return 0
}

func runStage(n *engine.Normalizer, config *Config) int {
	stage, status := n.StageFromText(config.Stage)

	if config.Output == OutputJSON {
		out := map[string]any{
			"input":  config.Stage,
			"status": status.String(),
		}
		if status == tnm.StageKnown {
			out["stage"] = stage.String()
		}
		jsonOutput, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonOutput))
		return 0
	}

	switch status {
	case tnm.StageKnown:
		fmt.Printf("Stage %s\n", stage)
	case tnm.StageNone:
		fmt.Println("No stage (no tumor found)")
	default:
		fmt.Println("Stage indeterminate")
	}
	return 0
}

func scanFile(n *engine.Normalizer, path string, config *Config) (ScanOutput, bool) {
	f, err := os.Open(path)
	if err != nil {
		output := ScanOutput{
			Bundle: path,
			Error:  fmt.Sprintf("Failed to read file: %v", err),
		}
		if config.Output == OutputText {
			fmt.Printf("Error reading %s: %v\n", path, err)
		}
		return output, true
	}
	defer f.Close()

	return scanReader(n, f, path, config)
}

func scanReader(n *engine.Normalizer, r io.Reader, name string, config *Config) (ScanOutput, bool) {
	startTime := time.Now()

	report, err := n.ScanBundle(r)
	duration := time.Since(startTime)

	if err != nil {
		output := ScanOutput{
			Bundle:   name,
			Error:    fmt.Sprintf("Scan failed: %v", err),
			Duration: duration.String(),
		}
		if config.Output == OutputText {
			fmt.Printf("Error scanning %s: %v\n", name, err)
		}
		return output, true
	}

	return buildOutput(name, report, duration, config)
}

// expandFiles resolves glob patterns to concrete paths, passing "-" through.
func expandFiles(patterns []string) ([]string, bool) {
	paths := make([]string, 0, len(patterns))
	hasErrors := false

	for _, pattern := range patterns {
		if pattern == "-" {
			paths = append(paths, pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error with pattern '%s': %v\n", pattern, err)
			hasErrors = true
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintf(os.Stderr, "No files match pattern: %s\n", pattern)
			hasErrors = true
			continue
		}
		paths = append(paths, matches...)
	}

	return paths, hasErrors
}

// scanBatch reads every bundle up front and scans them on a worker pool.
func scanBatch(n *engine.Normalizer, paths []string, config *Config) ([]ScanOutput, bool) {
	outputs := make([]ScanOutput, 0, len(paths))
	hasErrors := false

	jobs := make([]worker.Job, 0, len(paths))
	for _, path := range paths {
		var data []byte
		var err error
		name := path
		if path == "-" {
			name = "stdin"
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			outputs = append(outputs, ScanOutput{
				Bundle: name,
				Error:  fmt.Sprintf("Failed to read file: %v", err),
			})
			if config.Output == OutputText {
				fmt.Printf("Error reading %s: %v\n", name, err)
			}
			hasErrors = true
			continue
		}
		jobs = append(jobs, worker.Job{ID: name, Bundle: data})
	}

	batch := worker.ScanBatch(n, jobs, config.Workers)
	for _, result := range batch.Results {
		duration := time.Duration(result.Duration)
		if result.Err != nil {
			outputs = append(outputs, ScanOutput{
				Bundle:   result.ID,
				Error:    fmt.Sprintf("Scan failed: %v", result.Err),
				Duration: duration.String(),
			})
			if config.Output == OutputText {
				fmt.Printf("Error scanning %s: %v\n", result.ID, result.Err)
			}
			hasErrors = true
			continue
		}

		output, outputHasErrors := buildOutput(result.ID, result.Report, duration, config)
		outputs = append(outputs, output)
		if outputHasErrors {
			hasErrors = true
		}
	}

	return outputs, hasErrors
}

func buildOutput(name string, report *bundle.Report, duration time.Duration, config *Config) (ScanOutput, bool) {
	output := ScanOutput{
		Bundle:   name,
		Status:   report.StageStatus.String(),
		Duration: duration.Round(time.Microsecond).String(),
	}
	if report.StageStatus == tnm.StageKnown {
		output.Stage = report.Stage.String()
	}

	hasErrors := false
	for _, entry := range report.Entries {
		eo := EntryOutput{
			Index:        entry.Index,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			Profiles:     entry.Profiles,
		}
		if len(entry.Dates) > 0 {
			eo.Dates = make(map[string]string, len(entry.Dates))
			for field, instant := range entry.Dates {
				eo.Dates[field] = instant.Time.Format(time.RFC3339)
			}
		}
		if entry.Err != nil {
			eo.Error = entry.Err.Error()
			hasErrors = true
		}
		output.Entries = append(output.Entries, eo)
	}

	// Text output
	if config.Output == OutputText {
		printTextReport(name, &output, config)
	}

	return output, hasErrors
}

func printTextReport(name string, output *ScanOutput, config *Config) {
	fmt.Printf("== %s ==\n", name)
	fmt.Printf("Entries: %d\n", len(output.Entries))
	if output.Stage != "" {
		fmt.Printf("Stage: %s\n", output.Stage)
	} else {
		fmt.Printf("Stage: %s\n", output.Status)
	}
	fmt.Printf("Duration: %s\n", output.Duration)

	for _, entry := range output.Entries {
		if config.Quiet && entry.Error == "" {
			continue
		}

		line := fmt.Sprintf("  [%d] %s", entry.Index, entry.ResourceType)
		if entry.ResourceID != "" {
			line += "/" + entry.ResourceID
		}
		if len(entry.Profiles) > 0 {
			line += fmt.Sprintf(" profiles=%s", strings.Join(entry.Profiles, ","))
		}
		for field, value := range entry.Dates {
			line += fmt.Sprintf(" %s=%s", field, value)
		}
		if entry.Error != "" {
			line += fmt.Sprintf(" ERROR: %s", entry.Error)
		}
		fmt.Println(line)
	}

	fmt.Println()
}
