package textvec

import (
	"errors"
	"math"
	"testing"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "unigrams and bigrams",
			doc:  "grocery store purchase",
			want: []string{"grocery", "store", "purchase", "grocery store", "store purchase"},
		},
		{
			name: "stop words removed before bigrams",
			doc:  "payment for the rent",
			want: []string{"payment", "rent", "payment rent"},
		},
		{
			name: "punctuation and case normalized",
			doc:  "STARBUCKS #123, Coffee!",
			want: []string{"starbucks", "123", "coffee", "starbucks 123", "123 coffee"},
		},
		{
			name: "single characters dropped",
			doc:  "a b coffee",
			want: []string{"coffee"},
		},
		{
			name: "empty document",
			doc:  "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, Analyze(tt.doc))
		})
	}
}

func TestFit_VocabularyBound(t *testing.T) {
	docs := []string{
		"grocery store purchase",
		"monthly rent payment",
		"movie tickets",
		"grocery shopping trip",
	}

	v, err := Fit(docs, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Size())
	assert.Len(t, v.IDF, 3)

	// "grocery" appears in two documents and must survive the cap.
	assert.Contains(t, v.Terms, "grocery")
}

func TestFit_EmptyVocabulary(t *testing.T) {
	_, err := Fit([]string{"", "-", "a"}, 500)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyVocabulary))
}

func TestFit_Deterministic(t *testing.T) {
	docs := []string{"grocery store", "rent payment", "movie tickets", "grocery run"}

	v1, err := Fit(docs, 500)
	require.NoError(t, err)
	v2, err := Fit(docs, 500)
	require.NoError(t, err)

	assert.Equal(t, v1.Terms, v2.Terms)
	assert.Equal(t, v1.IDF, v2.IDF)
}

func TestTransform_L2Normalized(t *testing.T) {
	docs := []string{"grocery store purchase", "monthly rent payment", "movie tickets"}
	v, err := Fit(docs, 500)
	require.NoError(t, err)

	row := v.Transform("grocery store purchase")

	var norm float64
	for _, x := range row {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestTransform_OutOfVocabulary(t *testing.T) {
	v, err := Fit([]string{"grocery store", "rent payment"}, 500)
	require.NoError(t, err)

	row := v.Transform("completely unknown words")
	for i, x := range row {
		assert.Zerof(t, x, "column %d should be zero", i)
	}
}

func TestFromVocabulary_RoundTrip(t *testing.T) {
	docs := []string{"grocery store", "rent payment", "grocery run"}
	fitted, err := Fit(docs, 500)
	require.NoError(t, err)

	restored := FromVocabulary(fitted.Terms, fitted.IDF)
	assert.Equal(t, fitted.Transform("grocery store"), restored.Transform("grocery store"))
}
