// Package pipeline fits the composite categorization model: TF-IDF text
// branch plus numeric branch, column-concatenated, against a softmax
// classifier, and packages the result into a single model artifact.
package pipeline

import (
	"fmt"
	"sort"
)

// LabelCodec maps category strings to contiguous class indices in sorted
// order, so the mapping is reproducible for a given training set. The
// class list it produces is stored inside the artifact, which is the only
// place indices are ever decoded from; there is deliberately no second
// encoder anywhere in the system.
type LabelCodec struct {
	index   map[string]int
	classes []string
}

// FitLabels builds a codec from the categories observed in training data.
func FitLabels(categories []string) *LabelCodec {
	seen := make(map[string]bool, len(categories))
	classes := make([]string, 0, len(categories))
	for _, c := range categories {
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelCodec{classes: classes, index: index}
}

// Encode returns the class index for a category string.
func (c *LabelCodec) Encode(category string) (int, error) {
	i, ok := c.index[category]
	if !ok {
		return 0, fmt.Errorf("unknown category %q", category)
	}
	return i, nil
}

// Classes returns the ordered class list. Index i of this slice is the
// classifier's class i.
func (c *LabelCodec) Classes() []string {
	return c.classes
}

// Len returns the number of distinct classes.
func (c *LabelCodec) Len() int {
	return len(c.classes)
}
