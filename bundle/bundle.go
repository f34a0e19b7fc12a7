// Package bundle scans FHIR bundles and routes coded values, date fields and
// TNM staging observations through the normalization engines.
package bundle

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/normalizer/pkg/codemap"
	"github.com/gofhir/normalizer/pkg/fhirdate"
	"github.com/gofhir/normalizer/pkg/tnm"
)

// dateFields are the resource fields routed through the date parser.
var dateFields = []string{"birthDate", "onsetDateTime", "effectiveDateTime", "issued"}

// Entry is the normalized view of one bundle entry.
type Entry struct {
	// Index is the position of the entry in the bundle.
	Index int

	// FullURL is the fullUrl of the entry, if present.
	FullURL string

	// ResourceType is the type of resource in the entry.
	ResourceType string

	// ResourceID is the id of the resource, if present.
	ResourceID string

	// Profiles are the profile ids mapped from the resource's code codings.
	Profiles []string

	// Dates holds parsed date fields by field name.
	Dates map[string]fhirdate.Instant

	// Err is set when a field of the entry failed to normalize. The scan
	// continues past it.
	Err error
}

// Report is the outcome of scanning a bundle.
type Report struct {
	// Entries are the per-entry results in bundle order.
	Entries []Entry

	// TNM is the staging record assembled from Observation entries.
	TNM tnm.ObservationSet

	// Stage and StageStatus classify the assembled staging record.
	Stage       tnm.Stage
	StageStatus tnm.StageStatus
}

// Scanner normalizes bundle entries with a code mapper and a TNM table. A
// Scanner holds no per-scan state and is safe for concurrent use.
type Scanner struct {
	mapper     *codemap.Mapper
	table      *tnm.Table
	checkCodes bool
}

// NewScanner creates a Scanner. Staging observations are accepted only when
// their code and value categories agree; use WithCheckCodes to relax that.
func NewScanner(mapper *codemap.Mapper, table *tnm.Table) *Scanner {
	return &Scanner{
		mapper:     mapper,
		table:      table,
		checkCodes: true,
	}
}

// WithCheckCodes sets whether staging observations must have agreeing code
// and value categories.
func (s *Scanner) WithCheckCodes(check bool) *Scanner {
	s.checkCodes = check
	return s
}

// Scan reads a FHIR bundle and normalizes its entries. Malformed or
// irrelevant fields are skipped per entry; an unrecognized terminology system
// in a coding aborts the scan, since that points at a configuration bug
// rather than data noise.
func (s *Scanner) Scan(r io.Reader) (*Report, error) {
	decoder := json.NewDecoder(r)

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object start, got %v", token)
	}

	report := &Report{}
	var observations []tnm.Observation

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read field: %w", err)
		}
		fieldName, ok := token.(string)
		if !ok {
			continue
		}

		if fieldName != "entry" {
			var skip any
			if err := decoder.Decode(&skip); err != nil {
				return nil, fmt.Errorf("failed to skip field %s: %w", fieldName, err)
			}
			continue
		}

		if err := s.scanEntries(decoder, report, &observations); err != nil {
			return nil, err
		}
	}

	report.TNM = s.table.Extract(observations, s.checkCodes)
	report.Stage, report.StageStatus = report.TNM.Stage()
	return report, nil
}

// scanEntries consumes the entry array.
func (s *Scanner) scanEntries(decoder *json.Decoder, report *Report, observations *[]tnm.Observation) error {
	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("failed to read entry array: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected array start, got %v", token)
	}

	index := 0
	for decoder.More() {
		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode entry %d: %w", index, err)
		}

		entry, obs, err := s.scanEntry(raw, index)
		if err != nil {
			return fmt.Errorf("entry %d: %w", index, err)
		}
		report.Entries = append(report.Entries, entry)
		*observations = append(*observations, obs...)
		index++
	}

	// Consume the closing bracket.
	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("failed to read entry array end: %w", err)
	}
	return nil
}

// scanEntry normalizes a single entry. The returned error is fatal to the
// scan; recoverable per-field failures land in Entry.Err.
func (s *Scanner) scanEntry(raw map[string]any, index int) (Entry, []tnm.Observation, error) {
	entry := Entry{Index: index}

	if fullURL, ok := raw["fullUrl"].(string); ok {
		entry.FullURL = fullURL
	}

	resource, ok := raw["resource"].(map[string]any)
	if !ok {
		return entry, nil, nil
	}

	if rt, ok := resource["resourceType"].(string); ok {
		entry.ResourceType = rt
	}
	if id, ok := resource["id"].(string); ok {
		entry.ResourceID = id
	}

	code := decodeConcept(resource["code"])
	if code != nil {
		profiles, err := s.mapper.ExtractCodeMappings(code.Coding)
		if err != nil {
			return entry, nil, err
		}
		entry.Profiles = profiles
	}

	for _, field := range dateFields {
		text, ok := resource[field].(string)
		if !ok {
			continue
		}
		instant, err := fhirdate.Parse(text)
		if err != nil {
			if entry.Err == nil {
				entry.Err = fmt.Errorf("%s: %w", field, err)
			}
			continue
		}
		if entry.Dates == nil {
			entry.Dates = make(map[string]fhirdate.Instant)
		}
		entry.Dates[field] = instant
	}

	var observations []tnm.Observation
	if entry.ResourceType == "Observation" {
		value := decodeConcept(resource["valueCodeableConcept"])
		if value != nil {
			observations = append(observations, tnm.Observation{Code: code, Value: value})
		}
	}

	return entry, observations, nil
}

// decodeConcept converts a decoded JSON value back into an R4 codeable
// concept, nil when the value is absent or not concept-shaped.
func decodeConcept(v any) *r4.CodeableConcept {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var concept r4.CodeableConcept
	if err := json.Unmarshal(data, &concept); err != nil {
		return nil
	}
	return &concept
}
