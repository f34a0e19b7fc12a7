package fhirnormalizer

import (
	"sync/atomic"

	"github.com/gofhir/normalizer/pkg/tnm"
)

// Metrics tracks normalization counts using lock-free atomic operations.
// All methods are safe for concurrent use; engines only write, never read.
type Metrics struct {
	// Code mapping
	codeMappingsTotal   atomic.Uint64
	codeMappingFailures atomic.Uint64
	profilesMapped      atomic.Uint64

	// Date parsing
	dateParsesTotal   atomic.Uint64
	dateParseFailures atomic.Uint64

	// Staging outcomes
	stagingsTotal         atomic.Uint64
	stagingsKnown         atomic.Uint64
	stagingsNone          atomic.Uint64
	stagingsIndeterminate atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCodeMapping records a code-mapping call and the profiles it yielded.
func (m *Metrics) RecordCodeMapping(profiles int, ok bool) {
	m.codeMappingsTotal.Add(1)
	if !ok {
		m.codeMappingFailures.Add(1)
		return
	}
	m.profilesMapped.Add(uint64(profiles)) //nolint:gosec // Safe: profiles is a small non-negative count
}

// RecordDateParse records a date parse attempt.
func (m *Metrics) RecordDateParse(ok bool) {
	m.dateParsesTotal.Add(1)
	if !ok {
		m.dateParseFailures.Add(1)
	}
}

// RecordStaging records a staging classification outcome.
func (m *Metrics) RecordStaging(status tnm.StageStatus) {
	m.stagingsTotal.Add(1)
	switch status {
	case tnm.StageKnown:
		m.stagingsKnown.Add(1)
	case tnm.StageNone:
		m.stagingsNone.Add(1)
	case tnm.StageIndeterminate:
		m.stagingsIndeterminate.Add(1)
	}
}

// CodeMappingsTotal returns the total number of code-mapping calls.
func (m *Metrics) CodeMappingsTotal() uint64 {
	return m.codeMappingsTotal.Load()
}

// CodeMappingFailures returns the number of failed code-mapping calls.
func (m *Metrics) CodeMappingFailures() uint64 {
	return m.codeMappingFailures.Load()
}

// ProfilesMapped returns the total number of profile ids produced.
func (m *Metrics) ProfilesMapped() uint64 {
	return m.profilesMapped.Load()
}

// DateParsesTotal returns the total number of date parse attempts.
func (m *Metrics) DateParsesTotal() uint64 {
	return m.dateParsesTotal.Load()
}

// DateParseFailures returns the number of failed date parses.
func (m *Metrics) DateParseFailures() uint64 {
	return m.dateParseFailures.Load()
}

// DateParseRate returns the fraction of successful date parses (0.0 to 1.0).
func (m *Metrics) DateParseRate() float64 {
	total := m.dateParsesTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(total-m.dateParseFailures.Load()) / float64(total)
}

// StagingsTotal returns the total number of staging classifications.
func (m *Metrics) StagingsTotal() uint64 {
	return m.stagingsTotal.Load()
}

// StagingsKnown returns the number of classifications with a known stage.
func (m *Metrics) StagingsKnown() uint64 {
	return m.stagingsKnown.Load()
}

// StagingsNone returns the number of no-tumor-found classifications.
func (m *Metrics) StagingsNone() uint64 {
	return m.stagingsNone.Load()
}

// StagingsIndeterminate returns the number of indeterminate classifications.
func (m *Metrics) StagingsIndeterminate() uint64 {
	return m.stagingsIndeterminate.Load()
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.codeMappingsTotal.Store(0)
	m.codeMappingFailures.Store(0)
	m.profilesMapped.Store(0)
	m.dateParsesTotal.Store(0)
	m.dateParseFailures.Store(0)
	m.stagingsTotal.Store(0)
	m.stagingsKnown.Store(0)
	m.stagingsNone.Store(0)
	m.stagingsIndeterminate.Store(0)
}
