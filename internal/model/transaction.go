// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType indicates whether a transaction is income or an expense.
type TransactionType string

const (
	// TypeIncome represents money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money going out.
	TypeExpense TransactionType = "expense"
)

// Transaction represents a single financial transaction as recorded by the user.
type Transaction struct {
	Date        time.Time
	ID          string
	Description string // Free-text description entered by the user
	Category    string // Assigned spending category, empty until labeled
	Hash        string
	Type        TransactionType
	Amount      float64
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.Type)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
