package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

const PipelineFormat = "loan-pipeline/v1"

// Pipeline chains a DataPreprocessor and an Estimator. It holds no mutable
// state after construction.
type Pipeline struct {
	classes      []int
	preprocessor *DataPreprocessor
	estimator    Estimator
}

type pipelineSpec struct {
	Format      string              `json:"format"`
	Classes     []int               `json:"classes"`
	Numeric     []NumericColumn     `json:"numeric"`
	Categorical []CategoricalColumn `json:"categorical"`
	Estimator   estimatorSpec       `json:"estimator"`
}

type estimatorSpec struct {
	Type         string     `json:"type"`
	Coefficients []float64  `json:"coefficients,omitempty"`
	Intercept    float64    `json:"intercept,omitempty"`
	Nodes        []TreeNode `json:"nodes,omitempty"`
	Trees        []treeSpec `json:"trees,omitempty"`
}

type treeSpec struct {
	Nodes []TreeNode `json:"nodes"`
}

func NewPipeline(classes []int, preprocessor *DataPreprocessor, estimator Estimator) (*Pipeline, error) {
	if len(classes) < 2 {
		return nil, errors.New("pipeline needs at least 2 classes")
	}
	if preprocessor == nil || estimator == nil {
		return nil, errors.New("pipeline needs a preprocessor and an estimator")
	}
	return &Pipeline{
		classes:      append([]int(nil), classes...),
		preprocessor: preprocessor,
		estimator:    estimator,
	}, nil
}

// DecodePipeline builds a Pipeline from its JSON artifact form.
func DecodePipeline(payload []byte) (*Pipeline, error) {
	var spec pipelineSpec
	if err := json.Unmarshal(payload, &spec); err != nil {
		return nil, err
	}
	if spec.Format != PipelineFormat {
		return nil, fmt.Errorf("unsupported artifact format %q", spec.Format)
	}

	preprocessor, err := NewDataPreprocessor(spec.Numeric, spec.Categorical)
	if err != nil {
		return nil, err
	}
	estimator, err := buildEstimator(spec.Estimator, preprocessor.Width(), len(spec.Classes))
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}
	return NewPipeline(spec.Classes, preprocessor, estimator)
}

func buildEstimator(spec estimatorSpec, width, classCount int) (Estimator, error) {
	switch spec.Type {
	case "logistic_regression":
		return NewLogisticRegression(spec.Coefficients, spec.Intercept, width, classCount)
	case "decision_tree":
		return NewDecisionTree(spec.Nodes, width, classCount)
	case "random_forest":
		trees := make([]*DecisionTree, 0, len(spec.Trees))
		for i, t := range spec.Trees {
			tree, err := NewDecisionTree(t.Nodes, width, classCount)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			trees = append(trees, tree)
		}
		return NewRandomForest(trees)
	default:
		return nil, fmt.Errorf("unsupported estimator type %q", spec.Type)
	}
}

func (p *Pipeline) Classes() []int {
	return append([]int(nil), p.classes...)
}

// Columns lists the input columns the pipeline reads.
func (p *Pipeline) Columns() []string {
	return p.preprocessor.Columns()
}

func (p *Pipeline) PredictProba(rows []Row) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		features, err := p.preprocessor.Transform(row)
		if err != nil {
			return nil, err
		}
		proba, err := p.estimator.PredictProba(features)
		if err != nil {
			return nil, err
		}
		if len(proba) != len(p.classes) {
			return nil, fmt.Errorf("estimator returned %d probabilities for %d classes", len(proba), len(p.classes))
		}
		out[i] = proba
	}
	return out, nil
}

// Predict returns the most probable class per row; ties go to the earlier class.
func (p *Pipeline) Predict(rows []Row) ([]int, error) {
	probas, err := p.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, proba := range probas {
		best := 0
		for j := range proba {
			if proba[j] > proba[best] {
				best = j
			}
		}
		labels[i] = p.classes[best]
	}
	return labels, nil
}
