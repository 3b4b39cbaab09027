package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/service"
)

// SaveTransactions saves multiple transactions to the database.
// Duplicate hashes are silently skipped, so re-importing the same file is
// harmless.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, description, amount, category, type
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if txn.Type == "" {
			txn.Type = model.TypeExpense
		}

		if _, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.Date,
			txn.Description,
			txn.Amount,
			txn.Category,
			string(txn.Type),
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, hash, date, description, amount, category, type
		FROM transactions
	`
	var conditions []string
	var args []any
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryTransactions(ctx, query, args...)
}

// GetTrainingData returns every labeled transaction, oldest first. This
// is the one query the training pipeline consumes; it never mutates.
func (s *SQLiteStorage) GetTrainingData(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, `
		SELECT id, hash, date, description, amount, category, type
		FROM transactions
		WHERE category != ''
		ORDER BY date ASC
	`)
}

// CountTransactions reports the total number of stored transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var date time.Time
		var txnType string
		if err := rows.Scan(&txn.ID, &txn.Hash, &date, &txn.Description, &txn.Amount, &txn.Category, &txnType); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Date = date
		txn.Type = model.TransactionType(txnType)
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
