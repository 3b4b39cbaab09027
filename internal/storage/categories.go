package storage

import (
	"context"
	"fmt"

	"github.com/pennywise-app/pennywise/internal/model"
)

// GetCategories returns every category that appears on stored
// transactions, with its labeled-transaction count, plus any seeded
// categories that have no transactions yet. Ordered by name so output is
// stable.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, COUNT(t.id)
		FROM categories c
		LEFT JOIN transactions t ON t.category = c.name
		GROUP BY c.name
		UNION
		SELECT t.category, COUNT(t.id)
		FROM transactions t
		WHERE t.category != '' AND t.category NOT IN (SELECT name FROM categories)
		GROUP BY t.category
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}
