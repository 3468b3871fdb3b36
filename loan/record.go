// Package loan scores loan applications against a loaded model.
package loan

import (
	"net/url"
	"strconv"
	"strings"
)

// Record is a single loan application keyed by field name. Values are left
// loosely typed; the model is the validation boundary.
type Record map[string]any

var (
	// FieldNames is the column order the model was fitted with.
	FieldNames = []string{
		"Gender",
		"Married",
		"Dependents",
		"Education",
		"Self_Employed",
		"ApplicantIncome",
		"CoapplicantIncome",
		"LoanAmount",
		"Loan_Amount_Term",
		"Credit_History",
		"Property_Area",
	}

	// CategoricalFields are passed to the model as strings.
	CategoricalFields = []string{"Gender", "Married", "Dependents", "Education", "Self_Employed", "Property_Area"}

	// NumericFields are converted to float64 in this order.
	NumericFields = []string{"ApplicantIncome", "CoapplicantIncome", "LoanAmount", "Loan_Amount_Term", "Credit_History"}
)

// MissingFieldError reports a required field absent from a form submission.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field '" + e.Field + "'"
}

// InvalidNumberError reports a numeric field that does not parse as a float.
type InvalidNumberError struct {
	Field string
	Value string
}

func (e *InvalidNumberError) Error() string {
	return "could not convert string to float: '" + e.Value + "'"
}

// RecordFromForm extracts the eleven fields from submitted form values and
// converts the numeric ones. It returns the typed record and the raw strings
// for echoing back to the page.
func RecordFromForm(values url.Values) (Record, map[string]string, error) {
	formData := make(map[string]string, len(FieldNames))
	for _, name := range FieldNames {
		v, ok := values[name]
		if !ok {
			return nil, nil, &MissingFieldError{Field: name}
		}
		formData[name] = firstValue(v)
	}

	record := make(Record, len(formData))
	for name, value := range formData {
		record[name] = value
	}
	for _, name := range NumericFields {
		f, err := ParseNumber(formData[name])
		if err != nil {
			return nil, nil, &InvalidNumberError{Field: name, Value: formData[name]}
		}
		record[name] = f
	}
	return record, formData, nil
}

// ParseNumber parses a float the way form and CSV inputs are interpreted:
// surrounding whitespace is ignored.
func ParseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func firstValue(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
