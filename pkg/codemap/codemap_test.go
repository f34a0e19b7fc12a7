package codemap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/normalizer/pkg/codesystem"
)

func strPtr(s string) *string {
	return &s
}

func testMappings() ProfileMappings {
	return ProfileMappings{
		"mcode-primary-cancer-condition": {
			"http://snomed.info/sct": {"254837009", "93761005"},
			"icd-10":                 {"C50.911"},
		},
		"mcode-secondary-cancer-condition": {
			"http://snomed.info/sct": {"94222008", "254837009"},
		},
		"mcode-cancer-genetic-variant": {
			"http://loinc.org": {"69548-6"},
		},
	}
}

func TestNewMapperUnsupportedSystem(t *testing.T) {
	_, err := NewMapper(ProfileMappings{
		"broken-profile": {
			"not-a-system": {"123"},
		},
	})
	if err == nil {
		t.Fatal("NewMapper expected error for unrecognized system, got nil")
	}
	var unsupported *codesystem.UnsupportedSystemError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error type = %T, want *codesystem.UnsupportedSystemError", err)
	}
}

func TestExtractCodeMappings(t *testing.T) {
	m, err := NewMapper(testMappings())
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	tests := []struct {
		name    string
		codings []r4.Coding
		want    []string
	}{
		{
			name: "single profile",
			codings: []r4.Coding{
				{System: strPtr("http://loinc.org"), Code: strPtr("69548-6")},
			},
			want: []string{"mcode-cancer-genetic-variant"},
		},
		{
			name: "code shared by two profiles accumulates both",
			codings: []r4.Coding{
				{System: strPtr("http://snomed.info/sct"), Code: strPtr("254837009")},
			},
			want: []string{
				"mcode-primary-cancer-condition",
				"mcode-secondary-cancer-condition",
			},
		},
		{
			name: "output follows coding order without dedup",
			codings: []r4.Coding{
				{System: strPtr("http://loinc.org"), Code: strPtr("69548-6")},
				{System: strPtr("http://snomed.info/sct"), Code: strPtr("94222008")},
				{System: strPtr("http://loinc.org"), Code: strPtr("69548-6")},
			},
			want: []string{
				"mcode-cancer-genetic-variant",
				"mcode-secondary-cancer-condition",
				"mcode-cancer-genetic-variant",
			},
		},
		{
			name: "raw system string normalized before lookup",
			codings: []r4.Coding{
				{System: strPtr("ICD10-CM"), Code: strPtr("C50.911")},
			},
			want: []string{"mcode-primary-cancer-condition"},
		},
		{
			name: "unregistered code contributes nothing",
			codings: []r4.Coding{
				{System: strPtr("http://snomed.info/sct"), Code: strPtr("999999")},
			},
			want: nil,
		},
		{
			name: "coding without code is skipped",
			codings: []r4.Coding{
				{System: strPtr("http://snomed.info/sct")},
				{System: strPtr("http://loinc.org"), Code: strPtr("69548-6")},
			},
			want: []string{"mcode-cancer-genetic-variant"},
		},
		{
			name: "coding without system is skipped",
			codings: []r4.Coding{
				{Code: strPtr("254837009")},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ExtractCodeMappings(tt.codings)
			if err != nil {
				t.Fatalf("ExtractCodeMappings: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCodeMappings = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractCodeMappingsUnsupportedSystemIsFatal(t *testing.T) {
	m, err := NewMapper(testMappings())
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	codings := []r4.Coding{
		{System: strPtr("http://example.org/made-up"), Code: strPtr("1")},
	}
	_, err = m.ExtractCodeMappings(codings)
	if err == nil {
		t.Fatal("expected error for unrecognized system, got nil")
	}
	var unsupported *codesystem.UnsupportedSystemError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error type = %T, want *codesystem.UnsupportedSystemError", err)
	}
}

func TestCodesEqual(t *testing.T) {
	m, err := NewMapper(testMappings())
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	tests := []struct {
		name   string
		coding *r4.Coding
		system codesystem.System
		code   string
		want   bool
	}{
		{
			name:   "match",
			coding: &r4.Coding{System: strPtr("http://snomed.info/sct"), Code: strPtr("254837009")},
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   true,
		},
		{
			name:   "match via normalized short name",
			coding: &r4.Coding{System: strPtr("SNOMED-CT"), Code: strPtr("254837009")},
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   true,
		},
		{
			name:   "code mismatch",
			coding: &r4.Coding{System: strPtr("http://snomed.info/sct"), Code: strPtr("93761005")},
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   false,
		},
		{
			name:   "system mismatch",
			coding: &r4.Coding{System: strPtr("http://loinc.org"), Code: strPtr("254837009")},
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   false,
		},
		{
			name:   "code is case-sensitive",
			coding: &r4.Coding{System: strPtr("http://loinc.org"), Code: strPtr("69548-6a")},
			system: codesystem.LOINC,
			code:   "69548-6A",
			want:   false,
		},
		{
			name:   "missing code",
			coding: &r4.Coding{System: strPtr("http://snomed.info/sct")},
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   false,
		},
		{
			name:   "missing system",
			coding: &r4.Coding{Code: strPtr("254837009")},
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   false,
		},
		{
			name:   "nil coding",
			coding: nil,
			system: codesystem.SNOMED,
			code:   "254837009",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.CodesEqual(tt.coding, tt.system, tt.code)
			if err != nil {
				t.Fatalf("CodesEqual: %v", err)
			}
			if got != tt.want {
				t.Errorf("CodesEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodesEqualUnrecognizedSystem(t *testing.T) {
	m, err := NewMapper(testMappings())
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	coding := &r4.Coding{System: strPtr("bogus"), Code: strPtr("254837009")}
	_, err = m.CodesEqual(coding, codesystem.SNOMED, "254837009")
	if err == nil {
		t.Fatal("expected error for unrecognized system, got nil")
	}
}
