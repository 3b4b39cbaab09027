// Package classifier implements a multinomial logistic (softmax)
// regression classifier over dense feature rows. It exposes exactly the
// capability set the categorization pipeline needs: fit on a labeled
// matrix, predict a single label, and produce a full probability
// distribution over the known classes.
package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Model is the contract a fitted classifier satisfies.
type Model interface {
	Predict(features []float64) int
	PredictProba(features []float64) []float64
}

// FitOptions controls the gradient descent run. Training time is bounded
// by MaxIter; there is no other stopping condition.
type FitOptions struct {
	Progress      func(done, total int)
	MaxIter       int
	LearningRate  float64
	L2            float64
	ClassWeighted bool
}

// DefaultFitOptions returns the options used for normal-sized datasets.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MaxIter:      200,
		LearningRate: 0.5,
		L2:           1e-4,
	}
}

// Softmax is a fitted multinomial logistic regression model. Exported
// fields are what gets persisted into the model artifact.
type Softmax struct {
	Weights  [][]float64 // one row of feature weights per class
	Bias     []float64
	Features int
}

// Fit trains a softmax classifier on X (rows are samples) against integer
// labels in [0, numClasses). With ClassWeighted set, each sample's loss
// contribution is scaled inversely to its class frequency.
func Fit(x *mat.Dense, labels []int, numClasses int, opts FitOptions) (*Softmax, error) {
	n, d := x.Dims()
	if n == 0 || numClasses < 2 {
		return nil, fmt.Errorf("cannot fit classifier on %d samples and %d classes", n, numClasses)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("label count %d does not match sample count %d", len(labels), n)
	}
	for i, y := range labels {
		if y < 0 || y >= numClasses {
			return nil, fmt.Errorf("label %d at row %d out of range [0,%d)", y, i, numClasses)
		}
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultFitOptions().MaxIter
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultFitOptions().LearningRate
	}

	sampleWeight := make([]float64, n)
	var totalWeight float64
	if opts.ClassWeighted {
		counts := make([]float64, numClasses)
		for _, y := range labels {
			counts[y]++
		}
		for i, y := range labels {
			sampleWeight[i] = float64(n) / (float64(numClasses) * counts[y])
			totalWeight += sampleWeight[i]
		}
	} else {
		for i := range sampleWeight {
			sampleWeight[i] = 1
		}
		totalWeight = float64(n)
	}

	w := mat.NewDense(numClasses, d, nil)
	bias := make([]float64, numClasses)

	var scores, grad mat.Dense
	for iter := 0; iter < opts.MaxIter; iter++ {
		// Forward pass: class scores for every sample.
		scores.Mul(x, w.T())
		for i := 0; i < n; i++ {
			row := scores.RawRowView(i)
			floats.Add(row, bias)
			softmaxInPlace(row)
		}

		// Residuals scaled by sample weight become the gradient source.
		gradBias := make([]float64, numClasses)
		for i := 0; i < n; i++ {
			row := scores.RawRowView(i)
			row[labels[i]]--
			floats.Scale(sampleWeight[i]/totalWeight, row)
			floats.Add(gradBias, row)
		}
		grad.Mul(scores.T(), x)

		for j := 0; j < numClasses; j++ {
			for k := 0; k < d; k++ {
				g := grad.At(j, k) + opts.L2*w.At(j, k)
				w.Set(j, k, w.At(j, k)-opts.LearningRate*g)
			}
			bias[j] -= opts.LearningRate * gradBias[j]
		}

		if opts.Progress != nil {
			opts.Progress(iter+1, opts.MaxIter)
		}
	}

	weights := make([][]float64, numClasses)
	for j := 0; j < numClasses; j++ {
		weights[j] = append([]float64(nil), w.RawRowView(j)...)
	}
	return &Softmax{Weights: weights, Bias: bias, Features: d}, nil
}

// Predict returns the index of the most probable class.
func (s *Softmax) Predict(features []float64) int {
	return floats.MaxIdx(s.PredictProba(features))
}

// PredictProba returns the probability distribution over all classes.
// The returned slice sums to 1 within floating tolerance.
func (s *Softmax) PredictProba(features []float64) []float64 {
	scores := make([]float64, len(s.Weights))
	for j, wj := range s.Weights {
		scores[j] = floats.Dot(wj, features) + s.Bias[j]
	}
	softmaxInPlace(scores)
	return scores
}

// Classes returns the number of classes the model was fit on.
func (s *Softmax) Classes() int {
	return len(s.Weights)
}

// Accuracy computes the fraction of rows of x whose prediction matches
// the given labels. Used as the training-set sanity signal in degraded
// small-data mode.
func (s *Softmax) Accuracy(x *mat.Dense, labels []int) float64 {
	n, _ := x.Dims()
	if n == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < n; i++ {
		if s.Predict(x.RawRowView(i)) == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

// softmaxInPlace converts raw scores to probabilities, shifting by the
// max score for numeric stability.
func softmaxInPlace(scores []float64) {
	maxScore := floats.Max(scores)
	var sum float64
	for i, z := range scores {
		scores[i] = math.Exp(z - maxScore)
		sum += scores[i]
	}
	floats.Scale(1/sum, scores)
}
