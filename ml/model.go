package ml

// Row is a single input record keyed by column name.
type Row map[string]any

// Model is a fitted classifier. Implementations must be safe for concurrent
// read-only use once constructed.
type Model interface {
	// Classes returns the class labels in the order used by PredictProba.
	Classes() []int
	Predict(rows []Row) ([]int, error)
	PredictProba(rows []Row) ([][]float64, error)
}

// Estimator scores an encoded feature vector.
type Estimator interface {
	PredictProba(features []float64) ([]float64, error)
}
