package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisata-bali-recommender/internal/models"
)

type WeightRepository struct {
	db *sql.DB
}

func NewWeightRepository(db *sql.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// GetActiveWeights returns all active fitness weight rules.
func (r *WeightRepository) GetActiveWeights(ctx context.Context) ([]models.FitnessWeightRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, component, weight, is_active, created_at
		FROM fitness_weights
		WHERE is_active = TRUE
		ORDER BY component
	`)
	if err != nil {
		return nil, fmt.Errorf("query active weights: %w", err)
	}
	defer rows.Close()

	var rules []models.FitnessWeightRule
	for rows.Next() {
		var rule models.FitnessWeightRule
		var createdAt sql.NullTime
		if err := rows.Scan(&rule.ID, &rule.Component, &rule.Weight, &rule.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		rule.CreatedAt = createdAt.Time
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
