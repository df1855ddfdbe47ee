package domain

// Subtype is the clinical subtype label assigned to a visit.
type Subtype string

const (
	LuminalA       Subtype = "Luminal A"
	LuminalB       Subtype = "Luminal B"
	TripleNegative Subtype = "Triple Negative"
	HER2Enriched   Subtype = "HER2"
	HRPositive     Subtype = "HR Positive"
	Undetermined   Subtype = "Undetermined"
)

// String returns the label
func (s Subtype) String() string {
	return string(s)
}

// ClassificationScheme selects the rule set used to label visits.
type ClassificationScheme string

const (
	// SchemeIntrinsic labels Luminal A, Luminal B and Triple Negative.
	SchemeIntrinsic ClassificationScheme = "intrinsic"
	// SchemeReceptorGroup labels HER2, HR Positive and Triple Negative.
	SchemeReceptorGroup ClassificationScheme = "receptor_group"
)

// IsValid reports whether the scheme is known.
func (s ClassificationScheme) IsValid() bool {
	switch s {
	case SchemeIntrinsic, SchemeReceptorGroup:
		return true
	default:
		return false
	}
}

// Marker names read by the subtype rules.
const (
	MarkerER   = "ER"
	MarkerPR   = "PR"
	MarkerHER2 = "HER2"
)

// SubtypeColumn is the wide column holding the classification label.
const SubtypeColumn = "Subtype"
