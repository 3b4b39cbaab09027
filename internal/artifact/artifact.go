// Package artifact defines the serialized model bundle and its durable
// store. An artifact carries everything inference needs: the fitted
// vocabulary with IDF weights, the numeric feature layout, the classifier
// parameters and the authoritative class-label list. There is exactly one
// class list, and it lives here.
package artifact

import (
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/classifier"
	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/textvec"
)

// SchemaVersion is bumped whenever the serialized layout changes
// incompatibly. Artifacts with a different schema version are rejected.
const SchemaVersion = 1

// TrainingMode identifies which pipeline variant produced an artifact.
type TrainingMode string

const (
	// ModeStandard is the full pipeline for normal-sized datasets.
	ModeStandard TrainingMode = "standard"
	// ModeMinimal is the degraded small-data variant: tiny vocabulary,
	// class-weighted loss, evaluated on its own training data.
	ModeMinimal TrainingMode = "minimal"
)

// Stats records bookkeeping from the training run that produced an
// artifact. TrainingAccuracy is only populated in minimal mode and is
// measured on the training set itself, so it is an optimistic signal.
type Stats struct {
	Samples          int     `json:"samples"`
	Classes          int     `json:"classes"`
	VocabularySize   int     `json:"vocabulary_size"`
	TrainingAccuracy float64 `json:"training_accuracy,omitempty"`
	DurationMillis   int64   `json:"duration_ms"`
}

// Artifact is one immutable trained model version. Created by the
// training pipeline, written once, read-only thereafter.
type Artifact struct {
	CreatedAt      time.Time    `json:"created_at"`
	Version        string       `json:"version"`
	Mode           TrainingMode `json:"mode"`
	Classes        []string     `json:"classes"`
	Vocabulary     []string     `json:"vocabulary"`
	IDF            []float64    `json:"idf"`
	NumericColumns []string     `json:"numeric_columns"`
	NumericMeans   []float64    `json:"numeric_means"`
	NumericStds    []float64    `json:"numeric_stds"`
	Weights        [][]float64  `json:"weights"`
	Bias           []float64    `json:"bias"`
	Stats          Stats        `json:"stats"`
	SchemaVersion  int          `json:"schema_version"`
}

// Validate checks internal consistency of a deserialized artifact.
// Any failure means the stored file cannot be trusted for inference.
func (a *Artifact) Validate() error {
	if a.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: schema version %d, expected %d",
			common.ErrArtifactCorrupt, a.SchemaVersion, SchemaVersion)
	}
	if len(a.Classes) < 2 {
		return fmt.Errorf("%w: %d classes", common.ErrArtifactCorrupt, len(a.Classes))
	}
	if len(a.IDF) != len(a.Vocabulary) {
		return fmt.Errorf("%w: %d IDF weights for %d vocabulary terms",
			common.ErrArtifactCorrupt, len(a.IDF), len(a.Vocabulary))
	}
	if len(a.NumericMeans) != len(a.NumericColumns) || len(a.NumericStds) != len(a.NumericColumns) {
		return fmt.Errorf("%w: %d means and %d stds for %d numeric columns",
			common.ErrArtifactCorrupt, len(a.NumericMeans), len(a.NumericStds), len(a.NumericColumns))
	}
	if len(a.Weights) != len(a.Classes) || len(a.Bias) != len(a.Classes) {
		return fmt.Errorf("%w: weight rows %d, bias %d, classes %d",
			common.ErrArtifactCorrupt, len(a.Weights), len(a.Bias), len(a.Classes))
	}
	want := len(a.Vocabulary) + len(a.NumericColumns)
	for j, row := range a.Weights {
		if len(row) != want {
			return fmt.Errorf("%w: weight row %d has %d columns, expected %d",
				common.ErrArtifactCorrupt, j, len(row), want)
		}
	}
	return nil
}

// FeatureDims returns the total feature width the classifier was fit on.
func (a *Artifact) FeatureDims() int {
	return len(a.Vocabulary) + len(a.NumericColumns)
}

// Vectorizer reconstructs the fitted text vectorizer.
func (a *Artifact) Vectorizer() *textvec.Vectorizer {
	return textvec.FromVocabulary(a.Vocabulary, a.IDF)
}

// Model reconstructs the fitted classifier.
func (a *Artifact) Model() *classifier.Softmax {
	return &classifier.Softmax{
		Weights:  a.Weights,
		Bias:     a.Bias,
		Features: a.FeatureDims(),
	}
}

// DecodeLabel maps a classifier class index back to its category string.
// This is the only decode path in the system.
func (a *Artifact) DecodeLabel(index int) (string, error) {
	if index < 0 || index >= len(a.Classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", index, len(a.Classes))
	}
	return a.Classes[index], nil
}
