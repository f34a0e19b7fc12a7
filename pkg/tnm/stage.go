package tnm

// Stage is an overall cancer stage group.
type Stage int

// Stage groups. Stage0 is carcinoma in situ.
const (
	Stage0 Stage = iota
	StageI
	StageII
	StageIII
	StageIV
)

// String returns the numeric stage notation.
func (s Stage) String() string {
	switch s {
	case Stage0:
		return "0"
	case StageI:
		return "1"
	case StageII:
		return "2"
	case StageIII:
		return "3"
	case StageIV:
		return "4"
	default:
		return ""
	}
}

// StageStatus qualifies a classification outcome.
type StageStatus int

const (
	// StageKnown means the stage value is meaningful.
	StageKnown StageStatus = iota

	// StageNone means no tumor was found (T0 N0 M0); there is no stage.
	StageNone

	// StageIndeterminate means at least one axis was never observed.
	StageIndeterminate
)

// String returns the status name.
func (s StageStatus) String() string {
	switch s {
	case StageKnown:
		return "known"
	case StageNone:
		return "none"
	case StageIndeterminate:
		return "indeterminate"
	default:
		return ""
	}
}

// StageFromValues classifies numeric T/N/M values into a stage group. The
// tumor value may be the in-situ sentinel 0.5. The cases are ordered by
// clinical precedence: distant metastasis dominates nodal spread, which
// dominates tumor extent.
func StageFromValues(tumor, node, metastasis float64) (Stage, StageStatus) {
	switch {
	case metastasis > 0:
		return StageIV, StageKnown
	case node > 0:
		return StageIII, StageKnown
	case tumor > 2:
		return StageII, StageKnown
	case tumor >= 1:
		return StageI, StageKnown
	case tumor == 0:
		return 0, StageNone
	default:
		return Stage0, StageKnown
	}
}
