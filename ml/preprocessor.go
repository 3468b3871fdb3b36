package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NumericColumn imputes and standardizes a single numeric column.
type NumericColumn struct {
	Name  string   `json:"name"`
	Fill  *float64 `json:"fill,omitempty"`
	Mean  float64  `json:"mean"`
	Scale float64  `json:"scale"`
}

// CategoricalColumn imputes and one-hot encodes a single string column.
type CategoricalColumn struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Fill       *string  `json:"fill,omitempty"`

	index map[string]int
}

// DataPreprocessor turns a Row into the feature vector an estimator expects:
// numeric columns first, then one block per categorical column.
type DataPreprocessor struct {
	numeric     []NumericColumn
	categorical []CategoricalColumn
	width       int
}

func NewDataPreprocessor(numeric []NumericColumn, categorical []CategoricalColumn) (*DataPreprocessor, error) {
	if len(numeric) == 0 && len(categorical) == 0 {
		return nil, errors.New("preprocessor has no columns")
	}

	seen := make(map[string]bool, len(numeric)+len(categorical))
	p := &DataPreprocessor{
		numeric:     make([]NumericColumn, len(numeric)),
		categorical: make([]CategoricalColumn, len(categorical)),
	}
	copy(p.numeric, numeric)
	for _, col := range p.numeric {
		if col.Name == "" {
			return nil, errors.New("numeric column without a name")
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column %s", col.Name)
		}
		seen[col.Name] = true
	}
	p.width = len(p.numeric)

	for i, col := range categorical {
		if col.Name == "" {
			return nil, errors.New("categorical column without a name")
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column %s", col.Name)
		}
		seen[col.Name] = true
		if len(col.Categories) == 0 {
			return nil, fmt.Errorf("categorical column %s has no categories", col.Name)
		}

		col.index = make(map[string]int, len(col.Categories))
		for j, category := range col.Categories {
			key := normalizeCategory(category)
			if _, dup := col.index[key]; dup {
				return nil, fmt.Errorf("categorical column %s repeats category %q", col.Name, category)
			}
			col.index[key] = j
		}
		p.categorical[i] = col
		p.width += len(col.Categories)
	}
	return p, nil
}

// Width is the length of every vector Transform produces.
func (p *DataPreprocessor) Width() int {
	return p.width
}

// Columns lists the input columns in encoding order.
func (p *DataPreprocessor) Columns() []string {
	names := make([]string, 0, len(p.numeric)+len(p.categorical))
	for _, col := range p.numeric {
		names = append(names, col.Name)
	}
	for _, col := range p.categorical {
		names = append(names, col.Name)
	}
	return names
}

// Transform encodes a row. Keys the preprocessor does not know are ignored.
func (p *DataPreprocessor) Transform(row Row) ([]float64, error) {
	if missing := p.missingColumns(row); len(missing) > 0 {
		return nil, fmt.Errorf("columns are missing: %s", strings.Join(missing, ", "))
	}

	vector := make([]float64, 0, p.width)
	for _, col := range p.numeric {
		value, err := toFloat(row[col.Name])
		if err != nil {
			return nil, err
		}
		if math.IsInf(value, 0) {
			return nil, fmt.Errorf("column %s contains infinity", col.Name)
		}
		if math.IsNaN(value) {
			if col.Fill == nil {
				return nil, fmt.Errorf("column %s has a missing value and no fill", col.Name)
			}
			value = *col.Fill
		}
		scale := col.Scale
		if scale == 0 {
			scale = 1
		}
		vector = append(vector, (value-col.Mean)/scale)
	}

	for _, col := range p.categorical {
		value, ok, err := toCategory(row[col.Name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		if !ok {
			if col.Fill == nil {
				return nil, fmt.Errorf("column %s has a missing value and no fill", col.Name)
			}
			value = normalizeCategory(*col.Fill)
		}
		block := make([]float64, len(col.Categories))
		// unknown categories leave the block zeroed
		if j, known := col.index[value]; known {
			block[j] = 1
		}
		vector = append(vector, block...)
	}
	return vector, nil
}

func (p *DataPreprocessor) missingColumns(row Row) []string {
	var missing []string
	for _, name := range p.Columns() {
		if _, ok := row[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	default:
		return 0, fmt.Errorf("float() argument must be a string or a number, not %T", value)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("could not convert string to float: '%s'", s)
	}
	return f, nil
}

func toCategory(value any) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", false, nil
	case string:
		return normalizeCategory(v), true, nil
	case json.Number:
		return normalizeCategory(string(v)), true, nil
	case float64:
		if math.IsNaN(v) {
			return "", false, nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	default:
		return "", false, fmt.Errorf("unsupported category type %T", value)
	}
}

func normalizeCategory(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
