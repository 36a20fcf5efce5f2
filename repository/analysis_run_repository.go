package repository

import (
	"context"
	"errors"
	"time"

	"legaltriad-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repositories
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("analysis run not found")

// AnalysisRunRepository handles database operations for analysis runs
type AnalysisRunRepository struct {
	db DB
}

// NewAnalysisRunRepository creates a new analysis run repository
func NewAnalysisRunRepository(db DB) *AnalysisRunRepository {
	return &AnalysisRunRepository{db: db}
}

// Create inserts a run record
func (r *AnalysisRunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			id, topic, model, law_count, doctrine_count, jurisprudence_count, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		run.ID,
		run.Topic,
		run.Model,
		run.LawCount,
		run.DoctrineCount,
		run.JurisprudenceCount,
		run.Status,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
}

// GetByID retrieves a run by ID
func (r *AnalysisRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	query := `
		SELECT id, topic, model, law_count, doctrine_count, jurisprudence_count, status,
			error_kind, error_message, article_count, created_at, updated_at, completed_at
		FROM analysis_runs
		WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// ListRecent returns the latest runs, newest first
func (r *AnalysisRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	query := `
		SELECT id, topic, model, law_count, doctrine_count, jurisprudence_count, status,
			error_kind, error_message, article_count, created_at, updated_at, completed_at
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.AnalysisRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Complete marks a run as completed
func (r *AnalysisRunRepository) Complete(ctx context.Context, id uuid.UUID, articleCount int) error {
	now := time.Now()
	query := `
		UPDATE analysis_runs SET
			status = $2,
			article_count = $3,
			completed_at = $4,
			updated_at = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusCompleted, articleCount, now)
	return err
}

// Fail marks a run as failed
func (r *AnalysisRunRepository) Fail(ctx context.Context, id uuid.UUID, errorKind, errorMessage string) error {
	query := `
		UPDATE analysis_runs SET
			status = $2,
			error_kind = $3,
			error_message = $4,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusFailed, errorKind, errorMessage)
	return err
}

func scanRun(row pgx.Row) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	err := row.Scan(
		&run.ID,
		&run.Topic,
		&run.Model,
		&run.LawCount,
		&run.DoctrineCount,
		&run.JurisprudenceCount,
		&run.Status,
		&run.ErrorKind,
		&run.ErrorMessage,
		&run.ArticleCount,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
