package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/casebridge/internal/database"
	"github.com/stwalsh4118/casebridge/internal/taxonomy"
)

// TaxonomyRepository reads the issue category and issue option reference
// tables. It satisfies taxonomy.Loader.
type TaxonomyRepository struct {
	q DBTX
}

// NewTaxonomyRepository creates a TaxonomyRepository over the pool.
func NewTaxonomyRepository(db *database.Database) *TaxonomyRepository {
	return &TaxonomyRepository{q: db.Pool}
}

// LoadTaxonomy returns every category with its options, both in display
// order. Categories without options are included with an empty list.
func (r *TaxonomyRepository) LoadTaxonomy(ctx context.Context) ([]taxonomy.Category, error) {
	query := `
		SELECT
			c.id,
			c.category_code,
			c.category_name,
			c.display_order,
			o.id,
			o.option_name,
			o.display_order
		FROM issue_categories c
		LEFT JOIN issue_options o ON o.category_id = c.id
		ORDER BY c.display_order, c.category_code, o.display_order, o.option_name
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue taxonomy: %w", err)
	}
	defer rows.Close()

	categories := []taxonomy.Category{}
	for rows.Next() {
		var (
			cat         taxonomy.Category
			optionID    *uuid.UUID
			optionName  *string
			optionOrder *int
		)

		if err := rows.Scan(
			&cat.ID,
			&cat.Code,
			&cat.Name,
			&cat.DisplayOrder,
			&optionID,
			&optionName,
			&optionOrder,
		); err != nil {
			return nil, fmt.Errorf("failed to scan taxonomy row: %w", err)
		}

		last := len(categories) - 1
		if last < 0 || categories[last].ID != cat.ID {
			cat.Options = []taxonomy.Option{}
			categories = append(categories, cat)
			last++
		}

		if optionID != nil && optionName != nil {
			opt := taxonomy.Option{ID: *optionID, Name: *optionName}
			if optionOrder != nil {
				opt.DisplayOrder = *optionOrder
			}
			categories[last].Options = append(categories[last].Options, opt)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxonomy rows: %w", err)
	}

	return categories, nil
}
