package model

// PredictionResult is the outcome of categorizing a single transaction
// description. Probabilities covers every category the model knows about
// and sums to 1 within floating tolerance.
type PredictionResult struct {
	Probabilities map[string]float64
	Category      string
	Confidence    float64
	ModelVersion  string
}
