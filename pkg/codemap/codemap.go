// Package codemap maps coded clinical values to the profile identifiers they
// are registered under.
package codemap

import (
	"fmt"
	"sort"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/normalizer/pkg/codesystem"
)

// ProfileMappings is the input configuration: profile id -> raw terminology
// system string -> codes registered for that profile under that system.
type ProfileMappings map[string]map[string][]string

// codeKey identifies a code within a canonical system. Equality is structural
// and case-sensitive on the code.
type codeKey struct {
	system codesystem.System
	code   string
}

// Mapper resolves codings to profile ids. The reverse index is built once at
// construction and never mutated afterwards, so a Mapper is safe for
// concurrent use.
type Mapper struct {
	index map[codeKey][]string
}

// NewMapper builds a Mapper from profile mappings. Raw system strings are
// normalized up front; an unrecognized system in the configuration is a fatal
// construction error. Profiles and systems are visited in sorted order so that
// a code registered under several profiles accumulates them deterministically.
func NewMapper(mappings ProfileMappings) (*Mapper, error) {
	m := &Mapper{index: make(map[codeKey][]string)}

	profiles := make([]string, 0, len(mappings))
	for profile := range mappings {
		profiles = append(profiles, profile)
	}
	sort.Strings(profiles)

	for _, profile := range profiles {
		bySystem := mappings[profile]

		systems := make([]string, 0, len(bySystem))
		for system := range bySystem {
			systems = append(systems, system)
		}
		sort.Strings(systems)

		for _, rawSystem := range systems {
			system, err := codesystem.Normalize(rawSystem)
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", profile, err)
			}
			for _, code := range bySystem[rawSystem] {
				key := codeKey{system: system, code: code}
				m.index[key] = append(m.index[key], profile)
			}
		}
	}

	return m, nil
}

// ExtractCodeMappings resolves each coding to the profile ids registered for
// its (system, code) pair, preserving coding order and the index's profile
// order, without deduplication. Codings missing a code or system are skipped;
// a coding whose system is present but unrecognized is a fatal error.
func (m *Mapper) ExtractCodeMappings(codings []r4.Coding) ([]string, error) {
	var profiles []string
	for i := range codings {
		coding := &codings[i]
		if coding.Code == nil || coding.System == nil {
			continue
		}
		system, err := codesystem.Normalize(*coding.System)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, m.index[codeKey{system: system, code: *coding.Code}]...)
	}
	return profiles, nil
}

// CodesEqual reports whether the coding denotes the target code in the target
// system. A coding missing its code or system never matches; a coding whose
// system is present but unrecognized is a fatal error, consistent with
// ExtractCodeMappings.
func (m *Mapper) CodesEqual(coding *r4.Coding, targetSystem codesystem.System, targetCode string) (bool, error) {
	if coding == nil || coding.Code == nil || coding.System == nil {
		return false, nil
	}
	system, err := codesystem.Normalize(*coding.System)
	if err != nil {
		return false, err
	}
	return system == targetSystem && *coding.Code == targetCode, nil
}

// ProfileCount returns the number of distinct (system, code) pairs indexed.
func (m *Mapper) ProfileCount() int {
	return len(m.index)
}
