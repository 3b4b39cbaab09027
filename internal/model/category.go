package model

// Category represents a spending category together with how many labeled
// transactions carry it. The training pipeline needs the counts to decide
// whether a meaningful classifier can be fit at all.
type Category struct {
	Name  string
	Count int
}
