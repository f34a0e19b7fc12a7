// Package engine provides the main clinical-data normalization facade.
package engine

import (
	"io"

	"github.com/gofhir/fhir/r4"

	fn "github.com/gofhir/normalizer"
	"github.com/gofhir/normalizer/bundle"
	"github.com/gofhir/normalizer/pkg/codemap"
	"github.com/gofhir/normalizer/pkg/codesystem"
	"github.com/gofhir/normalizer/pkg/fhirdate"
	"github.com/gofhir/normalizer/pkg/tnm"
)

// Normalizer bundles the normalization engines behind one construction point.
// All state is built once by New and never mutated, so a Normalizer is safe
// for concurrent use.
type Normalizer struct {
	mapper  *codemap.Mapper
	table   *tnm.Table
	scanner *bundle.Scanner
	metrics *fn.Metrics

	checkCodes bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithTNMTable replaces the default AJCC category table.
func WithTNMTable(table *tnm.Table) Option {
	return func(n *Normalizer) {
		n.table = table
	}
}

// WithCheckCodes sets whether staging observations must have agreeing code
// and value categories. Enabled by default.
func WithCheckCodes(check bool) Option {
	return func(n *Normalizer) {
		n.checkCodes = check
	}
}

// WithMetrics attaches a shared metrics collector.
func WithMetrics(m *fn.Metrics) Option {
	return func(n *Normalizer) {
		n.metrics = m
	}
}

// New creates a Normalizer from profile mappings.
func New(mappings codemap.ProfileMappings, opts ...Option) (*Normalizer, error) {
	mapper, err := codemap.NewMapper(mappings)
	if err != nil {
		return nil, err
	}

	n := &Normalizer{
		mapper:     mapper,
		table:      tnm.DefaultTable(),
		metrics:    fn.NewMetrics(),
		checkCodes: true,
	}
	for _, opt := range opts {
		opt(n)
	}

	n.scanner = bundle.NewScanner(n.mapper, n.table).WithCheckCodes(n.checkCodes)
	return n, nil
}

// ProfilesForCodings resolves codings to the profile ids they are registered
// under.
func (n *Normalizer) ProfilesForCodings(codings []r4.Coding) ([]string, error) {
	profiles, err := n.mapper.ExtractCodeMappings(codings)
	n.metrics.RecordCodeMapping(len(profiles), err == nil)
	return profiles, err
}

// CodesEqual reports whether the coding denotes the target code in the target
// system.
func (n *Normalizer) CodesEqual(coding *r4.Coding, system codesystem.System, code string) (bool, error) {
	return n.mapper.CodesEqual(coding, system, code)
}

// ParseDate parses a FHIR date/time string into a UTC instant.
func (n *Normalizer) ParseDate(text string) (fhirdate.Instant, error) {
	instant, err := fhirdate.Parse(text)
	n.metrics.RecordDateParse(err == nil)
	return instant, err
}

// StageFromText parses and classifies free-text TNM staging notation.
func (n *Normalizer) StageFromText(text string) (tnm.Stage, tnm.StageStatus) {
	stage, status := tnm.StageFromString(text)
	n.metrics.RecordStaging(status)
	return stage, status
}

// ExtractTNM assembles a staging record from coded observations.
func (n *Normalizer) ExtractTNM(observations []tnm.Observation) tnm.ObservationSet {
	return n.table.Extract(observations, n.checkCodes)
}

// ScanBundle normalizes a FHIR bundle.
func (n *Normalizer) ScanBundle(r io.Reader) (*bundle.Report, error) {
	report, err := n.scanner.Scan(r)
	if err == nil {
		n.metrics.RecordStaging(report.StageStatus)
	}
	return report, err
}

// Metrics returns the attached metrics collector.
func (n *Normalizer) Metrics() *fn.Metrics {
	return n.metrics
}
