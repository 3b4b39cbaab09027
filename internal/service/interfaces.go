// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// Storage defines the contract for the transaction store. The categorizer
// only ever reads labeled transactions out of it; writes happen on import.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTrainingData(ctx context.Context) ([]model.Transaction, error)
	CountTransactions(ctx context.Context) (int, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TrainingStats summarizes a completed training run.
type TrainingStats struct {
	Mode             string
	Samples          int
	Classes          int
	VocabularySize   int
	TrainingAccuracy float64
	Duration         time.Duration
}
