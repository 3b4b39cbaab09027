package retrain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/pipeline"
	"github.com/pennywise-app/pennywise/internal/predict"
	"github.com/pennywise-app/pennywise/internal/service"
	"github.com/pennywise-app/pennywise/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStorage(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	day := func(value string) time.Time {
		d, parseErr := time.Parse("2006-01-02", value)
		require.NoError(t, parseErr)
		return d
	}

	records := []model.Transaction{
		{ID: "t1", Description: "grocery store purchase", Amount: 45.00, Category: "food", Type: model.TypeExpense, Date: day("2024-01-08")},
		{ID: "t2", Description: "grocery supermarket run", Amount: 52.30, Category: "food", Type: model.TypeExpense, Date: day("2024-01-09")},
		{ID: "t3", Description: "weekly grocery shopping", Amount: 41.80, Category: "food", Type: model.TypeExpense, Date: day("2024-01-10")},
		{ID: "t4", Description: "monthly rent payment", Amount: 1200.00, Category: "housing", Type: model.TypeExpense, Date: day("2024-01-01")},
		{ID: "t5", Description: "rent payment to landlord", Amount: 1200.00, Category: "housing", Type: model.TypeExpense, Date: day("2024-02-01")},
		{ID: "t6", Description: "movie tickets", Amount: 30.00, Category: "entertainment", Type: model.TypeExpense, Date: day("2024-01-05")},
		{ID: "t7", Description: "cinema movie night", Amount: 28.00, Category: "entertainment", Type: model.TypeExpense, Date: day("2024-01-12")},
	}
	require.NoError(t, store.SaveTransactions(context.Background(), records))
	return store
}

func TestScheduler_RunOncePublishesAndReloads(t *testing.T) {
	store := seededStorage(t)

	artifacts, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	svc := predict.NewService(artifacts)

	sched := NewScheduler(store, pipeline.New(pipeline.DefaultOptions()), artifacts, svc, time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))

	version, err := svc.ActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1", version)

	// A second run publishes the next version and hot-swaps it in.
	require.NoError(t, sched.RunOnce(context.Background()))
	version, err = svc.ActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, "v2", version)
}

func TestScheduler_FailureLeavesActiveArtifact(t *testing.T) {
	// Storage with too little data: training must fail.
	empty, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = empty.Close() })
	require.NoError(t, empty.Migrate(context.Background()))

	artifacts, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	// Publish a good artifact first from real data.
	good := seededStorage(t)
	sched := NewScheduler(good, pipeline.New(pipeline.DefaultOptions()), artifacts, nil, time.Hour)
	require.NoError(t, sched.RunOnce(context.Background()))

	failing := NewScheduler(empty, pipeline.New(pipeline.DefaultOptions()), artifacts, nil, time.Hour)
	err = failing.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientData))

	// The previously published artifact is untouched and still active.
	version, err := artifacts.ActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1", version)
	_, err = artifacts.LoadActive()
	assert.NoError(t, err)
}

func TestScheduler_RunStopsOnContextCancel(t *testing.T) {
	store := seededStorage(t)
	artifacts, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	sched := NewScheduler(store, pipeline.New(pipeline.DefaultOptions()), artifacts, nil, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = sched.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// At least the immediate run published something.
	_, err = artifacts.ActiveVersion()
	assert.NoError(t, err)
}

func TestScheduler_InvalidInterval(t *testing.T) {
	store := seededStorage(t)
	artifacts, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	sched := NewScheduler(store, pipeline.New(pipeline.DefaultOptions()), artifacts, nil, 0)
	assert.Error(t, sched.Run(context.Background()))
}
