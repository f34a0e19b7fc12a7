// Package tnm parses TNM cancer-staging notation and classifies it into an
// overall stage group.
package tnm

import (
	"regexp"
	"strings"
)

// Parameter is a TNM staging axis.
type Parameter int

// Staging axes.
const (
	Tumor Parameter = iota
	Node
	Metastasis
)

// String returns the single-letter axis notation.
func (p Parameter) String() string {
	switch p {
	case Tumor:
		return "T"
	case Node:
		return "N"
	case Metastasis:
		return "M"
	default:
		return ""
	}
}

// Field is one parsed TNM token, e.g. "cT1a" or "N0".
type Field struct {
	// Parameter is the staging axis.
	Parameter Parameter

	// Value is the numeric category, or nil when the token carries none
	// (e.g. "Tis", "Nx").
	Value *int

	// Prefix holds lowercase modifiers before the axis letter ("c", "p", "yc").
	Prefix string

	// Suffix holds lowercase modifiers after the category ("is", "a", "mi").
	Suffix string
}

// fieldPattern matches one staging token: lowercase prefix modifiers, a single
// uppercase axis letter, an optional single-digit category and lowercase
// suffix modifiers.
var fieldPattern = regexp.MustCompile(`^([a-z]*)([A-Z])(\d?)([a-z]*)$`)

// ParseFields splits staging text on whitespace and parses each token into a
// Field. Tokens that do not match the grammar, or that name an axis other
// than T, N or M, are dropped. ParseFields never fails; fully unparseable
// text yields an empty result.
func ParseFields(text string) []Field {
	var fields []Field
	for _, token := range strings.Fields(text) {
		m := fieldPattern.FindStringSubmatch(token)
		if m == nil {
			continue
		}

		var param Parameter
		switch m[2] {
		case "T":
			param = Tumor
		case "N":
			param = Node
		case "M":
			param = Metastasis
		default:
			continue
		}

		field := Field{Parameter: param, Prefix: m[1], Suffix: m[4]}
		if m[3] != "" {
			value := int(m[3][0] - '0')
			field.Value = &value
		}
		fields = append(fields, field)
	}
	return fields
}

// StageFromString parses staging text and classifies it. Fields are scanned
// left to right and the last resolved value per axis wins. The tumor axis
// resolves to its numeric category when present, otherwise to in-situ when
// the suffix is "is". An axis never observed makes the result indeterminate.
func StageFromString(text string) (Stage, StageStatus) {
	var tumor *extent
	var node, metastasis *int

	for _, field := range ParseFields(text) {
		switch field.Parameter {
		case Tumor:
			if field.Value != nil {
				tumor = &extent{numeric: *field.Value}
			} else if field.Suffix == "is" {
				tumor = &extent{inSitu: true}
			}
		case Node:
			if field.Value != nil {
				v := *field.Value
				node = &v
			}
		case Metastasis:
			if field.Value != nil {
				v := *field.Value
				metastasis = &v
			}
		}
	}

	if tumor == nil || node == nil || metastasis == nil {
		return 0, StageIndeterminate
	}
	return StageFromValues(tumor.rank(), float64(*node), float64(*metastasis))
}

// extent is the tumor axis: a numeric category or carcinoma in situ. The
// legacy 0.5 sentinel exists only at the numeric decision-table boundary.
type extent struct {
	inSitu  bool
	numeric int
}

// inSituRank is the legacy sentinel placing in-situ below T1 but above T0.
const inSituRank = 0.5

func (e extent) rank() float64 {
	if e.inSitu {
		return inSituRank
	}
	return float64(e.numeric)
}
