package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"wisata-bali-recommender/internal/models"
)

// RecommendationRepository stores the history of recommendation runs.
type RecommendationRepository struct {
	db *sql.DB
}

func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// SaveRun stores a finished run with its full response payload.
func (r *RecommendationRepository) SaveRun(ctx context.Context, run *models.RecommendationRun) error {
	prefs, err := json.Marshal(run.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recommendation_runs (id, requested_at, preferences, response, best_fitness, execution_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.RequestedAt.UTC(), string(prefs), string(run.Response), run.BestFitness, run.ExecutionMs)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns a stored run.
func (r *RecommendationRepository) GetRun(ctx context.Context, id string) (*models.RecommendationRun, error) {
	var (
		run      models.RecommendationRun
		prefs    []byte
		response []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, requested_at, preferences, response, best_fitness, execution_ms
		FROM recommendation_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.RequestedAt, &prefs, &response, &run.BestFitness, &run.ExecutionMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if err := json.Unmarshal(prefs, &run.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences of run %s: %w", id, err)
	}
	run.Response = response
	return &run, nil
}
