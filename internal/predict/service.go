// Package predict serves categorization requests against the currently
// active model artifact. The artifact is loaded once and cached for the
// process lifetime; publishing a new version becomes visible through an
// explicit Reload, which swaps an atomic pointer so in-flight predictions
// always run against one consistent artifact version.
package predict

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/classifier"
	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/feature"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/pipeline"
	"github.com/pennywise-app/pennywise/internal/textvec"
)

// Request carries the fields of a single categorization call. Amount is a
// pointer so a missing amount is distinguishable from zero.
type Request struct {
	Amount      *float64
	Date        time.Time
	Description string
}

// Service answers predict calls from the active artifact.
type Service struct {
	store   *artifact.Store
	current atomic.Pointer[loaded]
}

// loaded bundles one artifact with its rehydrated vectorizer and
// classifier so a single pointer swap replaces all three together.
type loaded struct {
	artifact   *artifact.Artifact
	vectorizer *textvec.Vectorizer
	model      *classifier.Softmax
}

// NewService creates a prediction service backed by the given artifact
// store. The service starts fine with no published artifact; predictions
// fail with common.ErrModelUnavailable until one exists.
func NewService(store *artifact.Store) *Service {
	return &Service{store: store}
}

// Reload loads the active artifact from the store and swaps it in. If
// the stored artifact turns out corrupt and a known-good model is already
// in memory, the old model stays in force and the error is reported.
func (s *Service) Reload() error {
	a, err := s.store.LoadActive()
	if err != nil {
		if s.current.Load() != nil {
			slog.Error("Failed to reload model artifact, keeping last known-good version",
				"error", err,
				"active_version", s.current.Load().artifact.Version)
		}
		return err
	}

	if err := validateSchema(a); err != nil {
		return err
	}

	s.current.Store(&loaded{
		artifact:   a,
		vectorizer: a.Vectorizer(),
		model:      a.Model(),
	})
	slog.Info("Model artifact loaded", "version", a.Version, "mode", a.Mode, "classes", len(a.Classes))
	return nil
}

// ActiveVersion reports the version of the model currently serving
// predictions, or common.ErrModelUnavailable.
func (s *Service) ActiveVersion() (string, error) {
	m := s.current.Load()
	if m == nil {
		return "", common.ErrModelUnavailable
	}
	return m.artifact.Version, nil
}

// Predict categorizes one transaction description. It is a pure read:
// cheap, idempotent, never retried, and never returns a partial result.
func (s *Service) Predict(req Request) (*model.PredictionResult, error) {
	if req.Amount == nil {
		return nil, fmt.Errorf("%w: amount is required", common.ErrInvalidInput)
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	fv, err := feature.Build(req.Description, *req.Amount, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, err)
	}

	m, err := s.active()
	if err != nil {
		return nil, err
	}

	row := pipeline.FeatureRow(m.vectorizer, m.artifact.NumericMeans, m.artifact.NumericStds, fv)
	if len(row) != m.model.Features {
		return nil, fmt.Errorf("%w: built %d feature columns, model expects %d",
			common.ErrFeatureMismatch, len(row), m.model.Features)
	}

	probs := m.model.PredictProba(row)

	best := 0
	distribution := make(map[string]float64, len(m.artifact.Classes))
	for i, p := range probs {
		label, decodeErr := m.artifact.DecodeLabel(i)
		if decodeErr != nil {
			return nil, decodeErr
		}
		distribution[label] = p
		if p > probs[best] {
			best = i
		}
	}

	category, err := m.artifact.DecodeLabel(best)
	if err != nil {
		return nil, err
	}

	return &model.PredictionResult{
		Category:      category,
		Confidence:    probs[best],
		Probabilities: distribution,
		ModelVersion:  m.artifact.Version,
	}, nil
}

// active returns the cached model, loading it on first use.
func (s *Service) active() (*loaded, error) {
	if m := s.current.Load(); m != nil {
		return m, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s.current.Load(), nil
}

// validateSchema rejects artifacts whose recorded feature layout no
// longer matches what the current feature builder produces. Without this
// check a drifted layout would silently misalign columns.
func validateSchema(a *artifact.Artifact) error {
	if !slices.Equal(a.NumericColumns, feature.NumericColumns) {
		return fmt.Errorf("%w: artifact numeric columns %v, builder produces %v",
			common.ErrFeatureMismatch, a.NumericColumns, feature.NumericColumns)
	}
	return nil
}
