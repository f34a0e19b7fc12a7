// Package codesystem normalizes raw terminology-system strings to a closed
// set of canonical code systems.
package codesystem

import (
	"fmt"
	"strings"
)

// System is a canonical terminology code system.
type System int

// Canonical code systems.
const (
	ICD10 System = iota
	SNOMED
	RxNorm
	AJCC
	LOINC
	NIH
	HGNC
	HL7
)

// String returns the short name of the system.
func (s System) String() string {
	switch s {
	case ICD10:
		return "ICD-10"
	case SNOMED:
		return "SNOMED"
	case RxNorm:
		return "RxNorm"
	case AJCC:
		return "AJCC"
	case LOINC:
		return "LOINC"
	case NIH:
		return "NIH"
	case HGNC:
		return "HGNC"
	case HL7:
		return "HL7"
	default:
		return ""
	}
}

// URI returns the canonical URI used when the system appears in FHIR codings.
func (s System) URI() string {
	switch s {
	case ICD10:
		return "http://hl7.org/fhir/sid/icd-10"
	case SNOMED:
		return "http://snomed.info/sct"
	case RxNorm:
		return "http://www.nlm.nih.gov/research/umls/rxnorm"
	case AJCC:
		return "http://cancerstaging.org"
	case LOINC:
		return "http://loinc.org"
	case NIH:
		return "https://ncit.nci.nih.gov"
	case HGNC:
		return "http://www.genenames.org"
	case HL7:
		return "http://terminology.hl7.org"
	default:
		return ""
	}
}

// UnsupportedSystemError reports a system string that matched no known system.
type UnsupportedSystemError struct {
	System string
}

func (e *UnsupportedSystemError) Error() string {
	return fmt.Sprintf("unsupported code system: %q", e.System)
}

// keywordRule maps substring keywords to a canonical system.
type keywordRule struct {
	keywords []string
	system   System
}

// keywordRules is evaluated in order; the first matching rule wins. The order
// resolves strings that contain more than one keyword (e.g. the RxNorm URI
// also contains "nih"), so it must not be rearranged.
var keywordRules = []keywordRule{
	{[]string{"snomed"}, SNOMED},
	{[]string{"rxnorm"}, RxNorm},
	{[]string{"icd-10", "icd10"}, ICD10},
	{[]string{"ajcc", "cancerstaging.org"}, AJCC},
	{[]string{"loinc"}, LOINC},
	{[]string{"nih"}, NIH},
	{[]string{"hgnc", "genenames.org"}, HGNC},
	{[]string{"hl7"}, HL7},
}

// Normalize maps a raw, non-empty terminology-system string to its canonical
// system. Matching is case-insensitive substring containment. A string that
// matches no keyword yields *UnsupportedSystemError.
func Normalize(system string) (System, error) {
	lowered := strings.ToLower(system)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.system, nil
			}
		}
	}
	return 0, &UnsupportedSystemError{System: system}
}
