package fhirnormalizer

import (
	"sync"
	"testing"

	"github.com/gofhir/normalizer/pkg/tnm"
)

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordCodeMapping(3, true)
	m.RecordCodeMapping(0, true)
	m.RecordCodeMapping(0, false)

	if got := m.CodeMappingsTotal(); got != 3 {
		t.Errorf("CodeMappingsTotal = %d, want 3", got)
	}
	if got := m.CodeMappingFailures(); got != 1 {
		t.Errorf("CodeMappingFailures = %d, want 1", got)
	}
	if got := m.ProfilesMapped(); got != 3 {
		t.Errorf("ProfilesMapped = %d, want 3", got)
	}

	m.RecordDateParse(true)
	m.RecordDateParse(true)
	m.RecordDateParse(false)

	if got := m.DateParsesTotal(); got != 3 {
		t.Errorf("DateParsesTotal = %d, want 3", got)
	}
	if got := m.DateParseFailures(); got != 1 {
		t.Errorf("DateParseFailures = %d, want 1", got)
	}
	if got := m.DateParseRate(); got < 0.66 || got > 0.67 {
		t.Errorf("DateParseRate = %f, want ~2/3", got)
	}

	m.RecordStaging(tnm.StageKnown)
	m.RecordStaging(tnm.StageNone)
	m.RecordStaging(tnm.StageIndeterminate)
	m.RecordStaging(tnm.StageIndeterminate)

	if got := m.StagingsTotal(); got != 4 {
		t.Errorf("StagingsTotal = %d, want 4", got)
	}
	if got := m.StagingsKnown(); got != 1 {
		t.Errorf("StagingsKnown = %d, want 1", got)
	}
	if got := m.StagingsNone(); got != 1 {
		t.Errorf("StagingsNone = %d, want 1", got)
	}
	if got := m.StagingsIndeterminate(); got != 2 {
		t.Errorf("StagingsIndeterminate = %d, want 2", got)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordCodeMapping(1, true)
	m.RecordDateParse(false)
	m.RecordStaging(tnm.StageKnown)

	m.Reset()

	if m.CodeMappingsTotal() != 0 || m.DateParsesTotal() != 0 || m.StagingsTotal() != 0 {
		t.Error("Reset did not clear counters")
	}
	if m.DateParseRate() != 0 {
		t.Errorf("DateParseRate after reset = %f, want 0", m.DateParseRate())
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordDateParse(j%2 == 0)
				m.RecordCodeMapping(1, true)
				m.RecordStaging(tnm.StageKnown)
			}
		}()
	}
	wg.Wait()

	if got := m.DateParsesTotal(); got != 1000 {
		t.Errorf("DateParsesTotal = %d, want 1000", got)
	}
	if got := m.DateParseFailures(); got != 500 {
		t.Errorf("DateParseFailures = %d, want 500", got)
	}
	if got := m.ProfilesMapped(); got != 1000 {
		t.Errorf("ProfilesMapped = %d, want 1000", got)
	}
	if got := m.StagingsKnown(); got != 1000 {
		t.Errorf("StagingsKnown = %d, want 1000", got)
	}
}
