package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/classifier"
	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/feature"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/textvec"

	"gonum.org/v1/gonum/mat"
)

// Options holds configuration for a training run. Thresholds are fixed
// policy, exposed only so tests can exercise both modes cheaply.
type Options struct {
	Progress              func(done, total int)
	MinSamples            int
	MinClasses            int
	MinimalModeThreshold  int // below this row count the degraded variant runs
	VocabularySize        int
	MinimalVocabularySize int
}

// DefaultOptions returns the production training configuration.
func DefaultOptions() Options {
	return Options{
		MinSamples:            3,
		MinClasses:            2,
		MinimalModeThreshold:  24,
		VocabularySize:        500,
		MinimalVocabularySize: 50,
	}
}

// Trainer fits the composite model from labeled transactions.
type Trainer struct {
	opts Options
}

// New creates a trainer with the given options.
func New(opts Options) *Trainer {
	def := DefaultOptions()
	if opts.MinSamples <= 0 {
		opts.MinSamples = def.MinSamples
	}
	if opts.MinClasses <= 0 {
		opts.MinClasses = def.MinClasses
	}
	if opts.MinimalModeThreshold <= 0 {
		opts.MinimalModeThreshold = def.MinimalModeThreshold
	}
	if opts.VocabularySize <= 0 {
		opts.VocabularySize = def.VocabularySize
	}
	if opts.MinimalVocabularySize <= 0 {
		opts.MinimalVocabularySize = def.MinimalVocabularySize
	}
	return &Trainer{opts: opts}
}

// Train fits vectorizer and classifier jointly on the given labeled
// records and returns an unpublished artifact. Any failure aborts the
// whole run and returns a descriptive error; nothing is written anywhere.
func (t *Trainer) Train(ctx context.Context, records []model.Transaction) (*artifact.Artifact, error) {
	start := time.Now()

	if len(records) < t.opts.MinSamples {
		return nil, fmt.Errorf("%w: have %d samples, need at least %d to train a meaningful classifier",
			common.ErrInsufficientData, len(records), t.opts.MinSamples)
	}

	// One feature vector per record, via the same builder inference uses.
	vectors := make([]feature.Vector, len(records))
	categories := make([]string, len(records))
	for i, rec := range records {
		v, err := feature.Build(rec.Description, rec.Amount, rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d unusable for training: %w", i, err)
		}
		vectors[i] = v
		categories[i] = rec.Category
	}

	codec := FitLabels(categories)
	if codec.Len() < t.opts.MinClasses {
		return nil, fmt.Errorf("%w: found %d distinct categories, need at least %d",
			common.ErrInsufficientData, codec.Len(), t.opts.MinClasses)
	}

	mode := artifact.ModeStandard
	vocabSize := t.opts.VocabularySize
	if len(records) < t.opts.MinimalModeThreshold {
		mode = artifact.ModeMinimal
		vocabSize = t.opts.MinimalVocabularySize
		slog.Warn("Dataset too small for a held-out split, training in degraded mode",
			"samples", len(records),
			"threshold", t.opts.MinimalModeThreshold)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	descriptions := make([]string, len(vectors))
	for i, v := range vectors {
		descriptions[i] = v.Description
	}
	vec, err := textvec.Fit(descriptions, vocabSize)
	if err != nil {
		return nil, fmt.Errorf("text vectorizer fit failed: %w", err)
	}

	// The numeric pass-through standardizes each column so the raw
	// amount scale cannot swamp the gradient steps. The fitted means and
	// stds travel inside the artifact with the rest of the model.
	means, stds := fitScaler(vectors)

	// Text columns first, numeric columns after. The same order is baked
	// into FeatureRow, which inference uses, so train and predict cannot
	// disagree about the layout.
	x := mat.NewDense(len(vectors), vec.Size()+len(feature.NumericColumns), nil)
	labels := make([]int, len(vectors))
	for i, v := range vectors {
		x.SetRow(i, FeatureRow(vec, means, stds, v))
		labels[i], err = codec.Encode(categories[i])
		if err != nil {
			return nil, fmt.Errorf("label encoding failed: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fitOpts := classifier.DefaultFitOptions()
	fitOpts.Progress = t.opts.Progress
	if mode == artifact.ModeMinimal {
		fitOpts.MaxIter = 1000
		fitOpts.ClassWeighted = true
	}

	modelFit, err := classifier.Fit(x, labels, codec.Len(), fitOpts)
	if err != nil {
		return nil, fmt.Errorf("classifier fit failed: %w", err)
	}

	stats := artifact.Stats{
		Samples:        len(records),
		Classes:        codec.Len(),
		VocabularySize: vec.Size(),
		DurationMillis: time.Since(start).Milliseconds(),
	}
	if mode == artifact.ModeMinimal {
		// Evaluated on the training set itself: an optimistic sanity
		// signal, not a generalization estimate.
		stats.TrainingAccuracy = modelFit.Accuracy(x, labels)
		slog.Warn("Degraded-mode training accuracy measured on the training set; treat as optimistic",
			"accuracy", stats.TrainingAccuracy)
	}

	slog.Info("Training run complete",
		"mode", mode,
		"samples", stats.Samples,
		"classes", stats.Classes,
		"vocabulary", stats.VocabularySize,
		"duration", time.Since(start))

	return &artifact.Artifact{
		SchemaVersion:  artifact.SchemaVersion,
		CreatedAt:      time.Now().UTC(),
		Mode:           mode,
		Classes:        codec.Classes(),
		Vocabulary:     vec.Terms,
		IDF:            vec.IDF,
		NumericColumns: feature.NumericColumns,
		NumericMeans:   means,
		NumericStds:    stds,
		Weights:        modelFit.Weights,
		Bias:           modelFit.Bias,
		Stats:          stats,
	}, nil
}

// FeatureRow assembles the full classifier input row for one feature
// vector: dense TF-IDF block first, then the standardized numeric block.
// Training and inference both go through here.
func FeatureRow(vec *textvec.Vectorizer, means, stds []float64, v feature.Vector) []float64 {
	text := vec.Transform(v.Description)
	row := make([]float64, 0, len(text)+len(feature.NumericColumns))
	row = append(row, text...)
	for i, x := range v.NumericRow() {
		row = append(row, (x-means[i])/stds[i])
	}
	return row
}

// fitScaler computes per-column mean and standard deviation of the
// numeric block. Constant columns get a std of 1 so they pass through
// as zeros instead of dividing by zero.
func fitScaler(vectors []feature.Vector) (means, stds []float64) {
	cols := len(feature.NumericColumns)
	means = make([]float64, cols)
	stds = make([]float64, cols)
	n := float64(len(vectors))

	for _, v := range vectors {
		for i, x := range v.NumericRow() {
			means[i] += x
		}
	}
	for i := range means {
		means[i] /= n
	}

	for _, v := range vectors {
		for i, x := range v.NumericRow() {
			d := x - means[i]
			stds[i] += d * d
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / n)
		if stds[i] == 0 {
			stds[i] = 1
		}
	}
	return means, stds
}
