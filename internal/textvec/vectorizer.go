// Package textvec implements a TF-IDF vectorizer over transaction
// descriptions: unigrams and bigrams, English stop-words removed, a
// bounded vocabulary, smoothed IDF weighting and L2-normalized rows.
package textvec

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pennywise-app/pennywise/internal/common"
)

// Vectorizer holds a fitted vocabulary and its IDF weights. The zero
// value is not usable; construct via Fit or FromVocabulary.
type Vectorizer struct {
	index map[string]int
	Terms []string
	IDF   []float64
}

// Fit learns a vocabulary from the given documents, keeping at most
// maxFeatures terms. Terms are ranked by corpus frequency with
// alphabetical order breaking ties, so fitting is deterministic for a
// given document set.
func Fit(docs []string, maxFeatures int) (*Vectorizer, error) {
	if maxFeatures <= 0 {
		return nil, fmt.Errorf("maxFeatures must be positive, got %d", maxFeatures)
	}

	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		terms := Analyze(doc)
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			corpusFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	if len(corpusFreq) == 0 {
		return nil, common.ErrEmptyVocabulary
	}

	candidates := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		candidates = append(candidates, term)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if corpusFreq[candidates[i]] != corpusFreq[candidates[j]] {
			return corpusFreq[candidates[i]] > corpusFreq[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}
	// Vocabulary index order is alphabetical for reproducibility.
	sort.Strings(candidates)

	n := float64(len(docs))
	idf := make([]float64, len(candidates))
	for i, term := range candidates {
		// Smoothed IDF: never zero, never divides by zero.
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return FromVocabulary(candidates, idf), nil
}

// FromVocabulary reconstructs a vectorizer from a persisted vocabulary
// and IDF weights, as stored in a model artifact.
func FromVocabulary(terms []string, idf []float64) *Vectorizer {
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}
	return &Vectorizer{Terms: terms, IDF: idf, index: index}
}

// Size returns the vocabulary size.
func (v *Vectorizer) Size() int {
	return len(v.Terms)
}

// Transform converts one document into a dense TF-IDF row of length
// Size(). Out-of-vocabulary terms are ignored.
func (v *Vectorizer) Transform(doc string) []float64 {
	row := make([]float64, len(v.Terms))
	for _, term := range Analyze(doc) {
		if i, ok := v.index[term]; ok {
			row[i] += v.IDF[i]
		}
	}

	var norm float64
	for _, x := range row {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row {
			row[i] /= norm
		}
	}
	return row
}

// Analyze tokenizes a document into lowercase unigrams and bigrams with
// stop-words removed. Bigrams are joined with a single space.
func Analyze(doc string) []string {
	tokens := tokenize(doc)

	kept := tokens[:0]
	for _, tok := range tokens {
		if !stopWords[tok] {
			kept = append(kept, tok)
		}
	}

	terms := make([]string, 0, len(kept)*2)
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// tokenize splits on non-alphanumeric runes and drops single-character
// tokens.
func tokenize(doc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
