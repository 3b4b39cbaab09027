// Package feature turns raw transaction fields into the fixed feature
// layout consumed by the classifier. Every feature is a pure function of
// the transaction itself; the same builder runs at training and at
// prediction time so the two paths can never drift apart.
package feature

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/common"
)

// LargeAmountThreshold is the cutoff above which a transaction counts as
// a "large" amount. Fixed, not configurable.
const LargeAmountThreshold = 100.0

// NumericColumns is the canonical ordered layout of the numeric feature
// block. day_of_week is expanded one-hot so the classifier never sees it
// as an ordinal value. The artifact records this layout and prediction
// refuses to run against a model trained with a different one.
var NumericColumns = []string{
	"amount",
	"has_amount",
	"dow_mon",
	"dow_tue",
	"dow_wed",
	"dow_thu",
	"dow_fri",
	"dow_sat",
	"dow_sun",
}

// Vector is the derived feature set for one transaction. Ephemeral and
// never persisted.
type Vector struct {
	Description string
	Amount      float64
	HasAmount   int
	DayOfWeek   int // Monday=0 .. Sunday=6
}

// Build derives a feature vector from raw transaction fields.
// Returns common.ErrMissingField when the description is empty and
// common.ErrInvalidAmount when the amount is negative or not a number.
func Build(description string, amount float64, date time.Time) (Vector, error) {
	if strings.TrimSpace(description) == "" {
		return Vector{}, fmt.Errorf("%w: description", common.ErrMissingField)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Vector{}, fmt.Errorf("%w: got %v", common.ErrInvalidAmount, amount)
	}
	if amount < 0 {
		return Vector{}, fmt.Errorf("%w: got %v", common.ErrInvalidAmount, amount)
	}

	return Vector{
		Description: description,
		Amount:      amount,
		HasAmount:   hasAmount(amount),
		DayOfWeek:   DayOfWeek(date),
	}, nil
}

// NumericRow expands the vector's numeric block in NumericColumns order.
func (v Vector) NumericRow() []float64 {
	row := make([]float64, len(NumericColumns))
	row[0] = v.Amount
	row[1] = float64(v.HasAmount)
	row[2+v.DayOfWeek] = 1
	return row
}

// DayOfWeek returns the zero-based ISO weekday index, Monday=0 .. Sunday=6.
func DayOfWeek(date time.Time) int {
	// time.Weekday has Sunday=0.
	return (int(date.Weekday()) + 6) % 7
}

func hasAmount(amount float64) int {
	if amount > LargeAmountThreshold {
		return 1
	}
	return 0
}
