// Package loader reads the external data the normalization engines are
// configured from: profile code-mapping files and per-system TNM category
// tables, in JSON or YAML.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gofhir/normalizer/pkg/codemap"
	"github.com/gofhir/normalizer/pkg/logger"
	"github.com/gofhir/normalizer/pkg/tnm"
)

// Format identifies a configuration file encoding.
type Format int

// Supported encodings.
const (
	JSON Format = iota
	YAML
)

// formatForPath picks the encoding from the file extension; JSON is the
// default for unknown extensions.
func formatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// decode unmarshals data into v according to the format.
func decode(data []byte, format Format, v any) error {
	if format == YAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// LoadProfileMappings reads a profile-id -> system -> codes mapping file.
// The result is handed to codemap.NewMapper unchanged; system strings stay
// raw so that normalization happens in exactly one place.
func LoadProfileMappings(path string) (codemap.ProfileMappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile mappings: %w", err)
	}
	mappings, err := ReadProfileMappings(data, formatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("loaded %d profile mappings from %s", len(mappings), path)
	return mappings, nil
}

// ReadProfileMappings decodes profile mappings from raw data.
func ReadProfileMappings(data []byte, format Format) (codemap.ProfileMappings, error) {
	var mappings codemap.ProfileMappings
	if err := decode(data, format, &mappings); err != nil {
		return nil, fmt.Errorf("invalid profile mappings: %w", err)
	}
	return mappings, nil
}

// tableEntry is one TNM category code in a table file.
type tableEntry struct {
	Parameter string  `json:"parameter" yaml:"parameter"`
	Value     float64 `json:"value" yaml:"value"`
}

// LoadTNMTable reads a TNM category table file: system URI -> code ->
// {parameter, value}. Entries are added on top of the built-in AJCC defaults.
func LoadTNMTable(path string) (*tnm.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read TNM table: %w", err)
	}
	table, err := ReadTNMTable(data, formatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("loaded TNM table with %d codes from %s", table.Len(), path)
	return table, nil
}

// ReadTNMTable decodes a TNM category table from raw data, layered over the
// default table.
func ReadTNMTable(data []byte, format Format) (*tnm.Table, error) {
	var raw map[string]map[string]tableEntry
	if err := decode(data, format, &raw); err != nil {
		return nil, fmt.Errorf("invalid TNM table: %w", err)
	}

	table := tnm.DefaultTable()
	for systemURI, codes := range raw {
		for code, entry := range codes {
			parameter, err := parseParameter(entry.Parameter)
			if err != nil {
				return nil, fmt.Errorf("code %q: %w", code, err)
			}
			table.Add(systemURI, code, tnm.Category{Parameter: parameter, Value: entry.Value})
		}
	}
	return table, nil
}

// parseParameter maps the single-letter axis notation used in table files.
func parseParameter(s string) (tnm.Parameter, error) {
	switch s {
	case "T":
		return tnm.Tumor, nil
	case "N":
		return tnm.Node, nil
	case "M":
		return tnm.Metastasis, nil
	default:
		return 0, fmt.Errorf("unknown TNM parameter %q", s)
	}
}

// ReadProfileMappingsFrom decodes profile mappings from a reader.
func ReadProfileMappingsFrom(r io.Reader, format Format) (codemap.ProfileMappings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile mappings: %w", err)
	}
	return ReadProfileMappings(data, format)
}
