package loan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loanapproval/metrics"
	"loanapproval/ml"
)

// ClassificationError wraps any failure raised while the model scores a record.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Service wraps a loaded model. The model is shared read-only by all callers.
type Service struct {
	model   ml.Model
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(model ml.Model, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{model: model, logger: log.Named("loan")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict scores a single record. No retries: a model failure is returned as
// a *ClassificationError.
func (s *Service) Predict(_ context.Context, record Record) (Verdict, error) {
	start := time.Now()
	verdict, err := s.predict(record)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObservePrediction("error", "", elapsed)
		s.logger.Debug("prediction failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return Verdict{}, &ClassificationError{Err: err}
	}

	s.metrics.ObservePrediction("success", verdict.Label, elapsed)
	s.logger.Debug("prediction",
		zap.String("verdict", verdict.Label),
		zap.Float64("confidence", verdict.Confidence),
		zap.Duration("elapsed", elapsed),
	)
	return verdict, nil
}

func (s *Service) predict(record Record) (Verdict, error) {
	row := make(ml.Row, len(record))
	for k, v := range record {
		row[k] = v
	}
	rows := []ml.Row{row}

	probas, err := s.model.PredictProba(rows)
	if err != nil {
		return Verdict{}, err
	}
	if len(probas) != 1 {
		return Verdict{}, fmt.Errorf("model returned %d probability rows for 1 record", len(probas))
	}
	labels, err := s.model.Predict(rows)
	if err != nil {
		return Verdict{}, err
	}
	if len(labels) != 1 {
		return Verdict{}, fmt.Errorf("model returned %d predictions for 1 record", len(labels))
	}

	class := labels[0]
	idx := indexOf(s.model.Classes(), class)
	if idx < 0 || idx >= len(probas[0]) {
		return Verdict{}, fmt.Errorf("predicted class %d has no probability", class)
	}

	return Verdict{
		Label:      labelFor(class),
		Class:      class,
		Confidence: roundPercent(probas[0][idx]),
		Input:      record,
	}, nil
}

func indexOf(classes []int, class int) int {
	for i, c := range classes {
		if c == class {
			return i
		}
	}
	return -1
}
