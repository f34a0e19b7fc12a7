package tnm

import (
	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/normalizer/pkg/codesystem"
)

// Category is the staging axis and numeric value a coded TNM concept denotes.
// The value is the legacy numeric form, so in-situ categories carry 0.5.
type Category struct {
	Parameter Parameter
	Value     float64
}

// Table maps coded TNM category concepts, keyed by canonical system URI and
// then raw code, to their staging axis and value. The category codes are
// external terminology data; DefaultTable covers the AJCC literals and
// site-specific tables load via the loader package. A Table is not mutated by
// lookups and may be shared across goroutines once populated.
type Table struct {
	entries map[string]map[string]Category
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[string]map[string]Category)}
}

// Add registers a category code under a system URI.
func (t *Table) Add(systemURI, code string, category Category) {
	codes, ok := t.entries[systemURI]
	if !ok {
		codes = make(map[string]Category)
		t.entries[systemURI] = codes
	}
	codes[code] = category
}

// Len returns the number of registered codes.
func (t *Table) Len() int {
	n := 0
	for _, codes := range t.entries {
		n += len(codes)
	}
	return n
}

// Category resolves a codeable concept to its TNM category. Codings are tried
// in order; the first whose (system, code) pair is registered wins. A concept
// with no resolvable coding yields ok = false, never an error.
func (t *Table) Category(concept *r4.CodeableConcept) (Category, bool) {
	if concept == nil {
		return Category{}, false
	}
	for i := range concept.Coding {
		coding := &concept.Coding[i]
		if coding.System == nil || coding.Code == nil {
			continue
		}
		if category, ok := t.entries[*coding.System][*coding.Code]; ok {
			return category, true
		}
	}
	return Category{}, false
}

// Observation is the coded-observation input shape: the observation's own
// code and its codeable-concept value.
type Observation struct {
	Code  *r4.CodeableConcept
	Value *r4.CodeableConcept
}

// ObservationSet is a partial T/N/M record assembled from observations. Each
// axis keeps the first value resolved for it; nil means never observed.
type ObservationSet struct {
	Tumor      *float64
	Node       *float64
	Metastasis *float64
}

// Stage classifies the set, indeterminate when any axis is missing.
func (s ObservationSet) Stage() (Stage, StageStatus) {
	if s.Tumor == nil || s.Node == nil || s.Metastasis == nil {
		return 0, StageIndeterminate
	}
	return StageFromValues(*s.Tumor, *s.Node, *s.Metastasis)
}

// Extract assembles an ObservationSet from coded observations. Each
// observation's value coding determines the axis and value. With checkCodes
// set, the observation's own code must resolve to the same axis as its value,
// guarding against a code/value category mismatch. The first resolved value
// per axis wins; observations for an already-set axis, and observations whose
// codings do not resolve, are skipped without error.
func (t *Table) Extract(observations []Observation, checkCodes bool) ObservationSet {
	var set ObservationSet
	for _, obs := range observations {
		value, ok := t.Category(obs.Value)
		if !ok {
			continue
		}
		if checkCodes {
			code, ok := t.Category(obs.Code)
			if !ok || code.Parameter != value.Parameter {
				continue
			}
		}

		switch value.Parameter {
		case Tumor:
			if set.Tumor == nil {
				v := value.Value
				set.Tumor = &v
			}
		case Node:
			if set.Node == nil {
				v := value.Value
				set.Node = &v
			}
		case Metastasis:
			if set.Metastasis == nil {
				v := value.Value
				set.Metastasis = &v
			}
		}
	}
	return set
}

// DefaultTable returns a Table preloaded with the AJCC category literals in
// clinical, pathological and unprefixed forms.
func DefaultTable() *Table {
	t := NewTable()
	ajcc := codesystem.AJCC.URI()

	for _, prefix := range []string{"", "c", "p"} {
		for value := 0; value <= 4; value++ {
			digit := byte('0' + value)
			t.Add(ajcc, prefix+"T"+string(digit), Category{Tumor, float64(value)})
			if value <= 3 {
				t.Add(ajcc, prefix+"N"+string(digit), Category{Node, float64(value)})
			}
			if value <= 1 {
				t.Add(ajcc, prefix+"M"+string(digit), Category{Metastasis, float64(value)})
			}
		}
		t.Add(ajcc, prefix+"Tis", Category{Tumor, inSituRank})
	}

	return t
}
