package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/feature"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

// trainingRecords returns the grocery/rent/movies scenario padded with
// enough near-duplicates per category to clear the sample minimum.
func trainingRecords(t *testing.T) []model.Transaction {
	t.Helper()
	return []model.Transaction{
		{Description: "grocery store purchase", Amount: 45.00, Category: "food", Date: mustDate(t, "2024-01-08")},
		{Description: "grocery run supermarket", Amount: 62.10, Category: "food", Date: mustDate(t, "2024-01-09")},
		{Description: "weekly grocery shopping", Amount: 38.75, Category: "food", Date: mustDate(t, "2024-01-10")},
		{Description: "monthly rent payment", Amount: 1200.00, Category: "housing", Date: mustDate(t, "2024-01-01")},
		{Description: "rent payment landlord", Amount: 1200.00, Category: "housing", Date: mustDate(t, "2024-02-01")},
		{Description: "apartment rent transfer", Amount: 1180.00, Category: "housing", Date: mustDate(t, "2024-03-01")},
		{Description: "movie tickets", Amount: 30.00, Category: "entertainment", Date: mustDate(t, "2024-01-05")},
		{Description: "cinema movie night", Amount: 27.50, Category: "entertainment", Date: mustDate(t, "2024-01-12")},
		{Description: "movie theater tickets", Amount: 24.00, Category: "entertainment", Date: mustDate(t, "2024-01-19")},
	}
}

func TestTrainer_TooFewSamples(t *testing.T) {
	trainer := New(DefaultOptions())

	_, err := trainer.Train(context.Background(), trainingRecords(t)[:2])
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientData))
}

func TestTrainer_SingleCategory(t *testing.T) {
	records := trainingRecords(t)[:3] // all "food"
	trainer := New(DefaultOptions())

	_, err := trainer.Train(context.Background(), records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientData))
}

func TestTrainer_EmptyVocabulary(t *testing.T) {
	// Descriptions made entirely of stop words and single characters
	// yield no usable vocabulary terms.
	records := []model.Transaction{
		{Description: "of a", Amount: 1, Category: "food", Date: mustDate(t, "2024-01-08")},
		{Description: "to a", Amount: 2, Category: "housing", Date: mustDate(t, "2024-01-09")},
		{Description: "in a", Amount: 3, Category: "food", Date: mustDate(t, "2024-01-10")},
	}

	_, err := New(DefaultOptions()).Train(context.Background(), records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyVocabulary))
}

func TestTrainer_MinimalMode(t *testing.T) {
	records := trainingRecords(t) // nine rows, well below the threshold

	a, err := New(DefaultOptions()).Train(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, artifact.ModeMinimal, a.Mode)
	assert.LessOrEqual(t, len(a.Vocabulary), 50)
	assert.Equal(t, 9, a.Stats.Samples)
	assert.Equal(t, 3, a.Stats.Classes)
	// Training accuracy is reported in degraded mode as a sanity signal.
	assert.Greater(t, a.Stats.TrainingAccuracy, 0.0)
}

func TestTrainer_ArtifactShape(t *testing.T) {
	records := trainingRecords(t)

	a, err := New(DefaultOptions()).Train(context.Background(), records)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	assert.Equal(t, []string{"entertainment", "food", "housing"}, a.Classes)
	assert.Equal(t, feature.NumericColumns, a.NumericColumns)
	assert.Len(t, a.NumericMeans, len(feature.NumericColumns))
	assert.Len(t, a.NumericStds, len(feature.NumericColumns))
	assert.Len(t, a.Weights, 3)
	for _, row := range a.Weights {
		assert.Len(t, row, len(a.Vocabulary)+len(feature.NumericColumns))
	}
}

func TestTrainer_StandardMode(t *testing.T) {
	opts := DefaultOptions()
	opts.MinimalModeThreshold = 5 // force standard mode for a small set

	a, err := New(opts).Train(context.Background(), trainingRecords(t))
	require.NoError(t, err)

	assert.Equal(t, artifact.ModeStandard, a.Mode)
	assert.Zero(t, a.Stats.TrainingAccuracy)
}

func TestTrainer_FitRecoversTrainingLabels(t *testing.T) {
	records := trainingRecords(t)
	a, err := New(DefaultOptions()).Train(context.Background(), records)
	require.NoError(t, err)

	vec := a.Vectorizer()
	clf := a.Model()
	for _, rec := range records {
		fv, buildErr := feature.Build(rec.Description, rec.Amount, rec.Date)
		require.NoError(t, buildErr)
		got, decodeErr := a.DecodeLabel(clf.Predict(FeatureRow(vec, a.NumericMeans, a.NumericStds, fv)))
		require.NoError(t, decodeErr)
		assert.Equalf(t, rec.Category, got, "description %q", rec.Description)
	}
}

func TestTrainer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions()).Train(ctx, trainingRecords(t))
	assert.Error(t, err)
}
