package loan

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sample is a labelled application read from a dataset.
type Sample struct {
	ID     string
	Record Record
	Class  int
}

// Report summarizes how a model scores a labelled dataset. Precision and
// recall are for the positive class.
type Report struct {
	Total     int
	Scored    int
	Failed    int
	Accuracy  float64
	Precision float64
	Recall    float64
}

// Predictor is the part of Service that Evaluate needs.
type Predictor interface {
	Predict(ctx context.Context, record Record) (Verdict, error)
}

func Evaluate(ctx context.Context, p Predictor, samples []Sample) Report {
	report := Report{Total: len(samples)}

	var correct, truePositive, predictedPositive, actualPositive int
	for _, sample := range samples {
		verdict, err := p.Predict(ctx, sample.Record)
		if err != nil {
			report.Failed++
			continue
		}
		report.Scored++
		if verdict.Class == sample.Class {
			correct++
		}
		if verdict.Class == PositiveClass {
			predictedPositive++
		}
		if sample.Class == PositiveClass {
			actualPositive++
			if verdict.Class == PositiveClass {
				truePositive++
			}
		}
	}

	if report.Scored > 0 {
		report.Accuracy = float64(correct) / float64(report.Scored)
	}
	if predictedPositive > 0 {
		report.Precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		report.Recall = float64(truePositive) / float64(actualPositive)
	}
	return report
}

// DatasetOptions names the label column and the value that marks an approval.
type DatasetOptions struct {
	LabelColumn   string
	PositiveLabel string
	IDColumn      string
}

// ReadSamples reads a CSV dataset with a header row. Empty numeric cells
// become missing values for the model to impute; non-numeric ones are an error.
func ReadSamples(r io.Reader, opts DatasetOptions) ([]Sample, error) {
	if opts.LabelColumn == "" {
		return nil, errors.New("label column is required")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	labelIdx, ok := columns[opts.LabelColumn]
	if !ok {
		return nil, fmt.Errorf("label column %q not in header", opts.LabelColumn)
	}

	var samples []Sample
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		record := make(Record, len(FieldNames))
		for _, name := range CategoricalFields {
			if cell, ok := cellAt(row, columns, name); ok {
				record[name] = nilIfEmpty(cell)
			}
		}
		for _, name := range NumericFields {
			cell, ok := cellAt(row, columns, name)
			switch {
			case !ok:
				continue
			case cell == "":
				record[name] = nil
			default:
				f, err := ParseNumber(cell)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, &InvalidNumberError{Field: name, Value: cell})
				}
				record[name] = f
			}
		}

		class := 0
		if strings.EqualFold(strings.TrimSpace(row[labelIdx]), opts.PositiveLabel) {
			class = PositiveClass
		}
		sample := Sample{Record: record, Class: class}
		if idx, ok := columns[opts.IDColumn]; ok && opts.IDColumn != "" {
			sample.ID = row[idx]
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// cellAt returns the trimmed cell for name; ok is false when the dataset has
// no such column.
func cellAt(row []string, columns map[string]int, name string) (string, bool) {
	idx, ok := columns[name]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(row[idx]), true
}

func nilIfEmpty(cell string) any {
	if cell == "" {
		return nil
	}
	return cell
}
