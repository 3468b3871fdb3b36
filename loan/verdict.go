package loan

import (
	"strconv"
	"strings"
)

const (
	// PositiveClass is the model class meaning the loan is approved.
	PositiveClass = 1

	LabelApproved = "Approved"
	LabelRejected = "Rejected"
)

type Verdict struct {
	Label string
	Class int
	// Confidence is the predicted class probability as a percentage,
	// rounded to two decimals.
	Confidence float64
	Input      Record
}

func (v Verdict) Approved() bool {
	return v.Class == PositiveClass
}

// ConfidenceText renders the confidence as the API reports it, e.g. "87.0%".
func (v Verdict) ConfidenceText() string {
	return FormatPercent(v.Confidence) + "%"
}

// FormatPercent prints the shortest representation of f that still carries a
// decimal point: 87 -> "87.0", 65.43 -> "65.43".
func FormatPercent(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// roundPercent rounds the exact binary value of p*100 to two decimals.
func roundPercent(p float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(p*100, 'f', 2, 64), 64)
	return v
}

func labelFor(class int) string {
	if class == PositiveClass {
		return LabelApproved
	}
	return LabelRejected
}
