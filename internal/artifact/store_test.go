package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact() *Artifact {
	return &Artifact{
		SchemaVersion:  SchemaVersion,
		Mode:           ModeStandard,
		Classes:        []string{"entertainment", "food", "housing"},
		Vocabulary:     []string{"grocery", "rent"},
		IDF:            []float64{1.2, 1.5},
		NumericColumns: []string{"amount", "has_amount"},
		NumericMeans:   []float64{400.0, 0.5},
		NumericStds:    []float64{350.0, 0.5},
		Weights: [][]float64{
			{0.1, 0.2, 0.3, 0.4},
			{0.5, 0.6, 0.7, 0.8},
			{0.9, 1.0, 1.1, 1.2},
		},
		Bias: []float64{0.1, 0.2, 0.3},
		Stats: Stats{
			Samples: 10,
			Classes: 3,
		},
	}
}

func TestStore_PublishAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	version, err := store.Publish(testArtifact())
	require.NoError(t, err)
	assert.Equal(t, "v1", version)

	loaded, err := store.LoadActive()
	require.NoError(t, err)
	assert.Equal(t, "v1", loaded.Version)
	assert.Equal(t, []string{"entertainment", "food", "housing"}, loaded.Classes)
	assert.Equal(t, ModeStandard, loaded.Mode)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestStore_VersionsIncrement(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	v1, err := store.Publish(testArtifact())
	require.NoError(t, err)
	v2, err := store.Publish(testArtifact())
	require.NoError(t, err)

	assert.Equal(t, "v1", v1)
	assert.Equal(t, "v2", v2)

	active, err := store.ActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, "v2", active)
}

func TestStore_PublishKeepsOldVersion(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Publish(testArtifact())
	require.NoError(t, err)
	_, err = store.Publish(testArtifact())
	require.NoError(t, err)

	// The superseded version must still exist on disk.
	_, err = os.Stat(filepath.Join(dir, "classifier_v1.json"))
	assert.NoError(t, err)
}

func TestStore_LoadActiveNoArtifact(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadActive()
	assert.True(t, errors.Is(err, common.ErrModelUnavailable))
}

func TestStore_LoadActiveCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Publish(testArtifact())
	require.NoError(t, err)

	// Truncate the active artifact behind the store's back.
	name, err := store.activeName()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{not json"), 0o600))

	_, err = store.LoadActive()
	assert.True(t, errors.Is(err, common.ErrArtifactCorrupt))
}

func TestArtifact_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Artifact)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(_ *Artifact) {}, wantErr: false},
		{name: "wrong schema version", mutate: func(a *Artifact) { a.SchemaVersion = 99 }, wantErr: true},
		{name: "single class", mutate: func(a *Artifact) { a.Classes = a.Classes[:1]; a.Weights = a.Weights[:1]; a.Bias = a.Bias[:1] }, wantErr: true},
		{name: "idf mismatch", mutate: func(a *Artifact) { a.IDF = a.IDF[:1] }, wantErr: true},
		{name: "scaler mismatch", mutate: func(a *Artifact) { a.NumericMeans = a.NumericMeans[:1] }, wantErr: true},
		{name: "weight rows mismatch", mutate: func(a *Artifact) { a.Weights = a.Weights[:2] }, wantErr: true},
		{name: "weight columns mismatch", mutate: func(a *Artifact) { a.Weights[0] = a.Weights[0][:2] }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testArtifact()
			tt.mutate(a)
			err := a.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArtifact_DecodeLabel(t *testing.T) {
	a := testArtifact()

	label, err := a.DecodeLabel(1)
	require.NoError(t, err)
	assert.Equal(t, "food", label)

	_, err = a.DecodeLabel(3)
	assert.Error(t, err)
	_, err = a.DecodeLabel(-1)
	assert.Error(t, err)
}
