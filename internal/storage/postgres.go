package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

// ErrNotFound is returned by updates that match no row
var ErrNotFound = errors.New("record not found")

const formColumns = `id, token, user_id, status, ratings, quiz_id, quiz_title, created_at, updated_at, submitted_at, expires_at, created_by`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 25
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}

	poolConfig.MinConns = 2
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}

	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Forms ---

// CreateForm inserts a new form
func (r *PostgresRepository) CreateForm(ctx context.Context, f *models.Form) error {
	ratingsJSON, err := json.Marshal(f.Ratings)
	if err != nil {
		return fmt.Errorf("failed to marshal ratings: %w", err)
	}

	query := `
		INSERT INTO assessment_forms (` + formColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		f.ID,
		f.Token,
		f.UserID,
		string(f.Status),
		ratingsJSON,
		nullString(f.QuizID),
		nullString(f.QuizTitle),
		f.CreatedAt,
		f.UpdatedAt,
		nullTime(f.SubmittedAt),
		f.ExpiresAt,
		nullString(f.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}

	return nil
}

// GetFormByToken returns the form addressed by token, or nil when absent
func (r *PostgresRepository) GetFormByToken(ctx context.Context, token string) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM assessment_forms WHERE token = $1`

	f, err := scanForm(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return f, nil
}

// UpdateForm stores status, ratings and timestamps of an existing form
func (r *PostgresRepository) UpdateForm(ctx context.Context, f *models.Form) error {
	ratingsJSON, err := json.Marshal(f.Ratings)
	if err != nil {
		return fmt.Errorf("failed to marshal ratings: %w", err)
	}

	query := `
		UPDATE assessment_forms
		SET status = $2, ratings = $3, updated_at = $4, submitted_at = $5, expires_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		f.ID,
		string(f.Status),
		ratingsJSON,
		f.UpdatedAt,
		nullTime(f.SubmittedAt),
		f.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("form %s: %w", f.ID, ErrNotFound)
	}

	return nil
}

// SetFormRating rewrites a single key of the ratings object so concurrent
// changes to different topics of one form do not overwrite each other
func (r *PostgresRepository) SetFormRating(ctx context.Context, token string, topic assessment.Topic, rating assessment.Rating, at time.Time) (*models.Form, error) {
	query := `
		UPDATE assessment_forms
		SET ratings = jsonb_set(ratings, ARRAY[$2::text], to_jsonb($3::int)), updated_at = $4
		WHERE token = $1 AND status = 'open' AND expires_at >= $4
		RETURNING ` + formColumns

	f, err := scanForm(r.pool.QueryRow(ctx, query, token, topic.String(), int(rating), at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to set form rating: %w", err)
	}
	return f, nil
}

// UpdateFormStatusIfOpen claims an open form. Only one caller can move a
// given form out of the open state.
func (r *PostgresRepository) UpdateFormStatusIfOpen(ctx context.Context, id string, status models.FormStatus, at time.Time) (*models.Form, error) {
	query := `
		UPDATE assessment_forms
		SET status = $2::text,
		    updated_at = $3,
		    submitted_at = CASE WHEN $2::text = 'submitted' THEN $3 ELSE submitted_at END
		WHERE id = $1 AND status = 'open'
		RETURNING ` + formColumns

	f, err := scanForm(r.pool.QueryRow(ctx, query, id, string(status), at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update form status: %w", err)
	}
	return f, nil
}

// ListForms returns forms matching filters, newest first
func (r *PostgresRepository) ListForms(ctx context.Context, filters FormFilters) ([]*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM assessment_forms WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filters.UserID)
		argNum++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	return r.queryForms(ctx, query, args...)
}

// GetExpiredForms returns open forms whose TTL has elapsed
func (r *PostgresRepository) GetExpiredForms(ctx context.Context) ([]*models.Form, error) {
	query := `
		SELECT ` + formColumns + `
		FROM assessment_forms
		WHERE status = 'open'
		  AND expires_at < NOW()
		ORDER BY expires_at ASC
	`
	return r.queryForms(ctx, query)
}

func (r *PostgresRepository) queryForms(ctx context.Context, query string, args ...interface{}) ([]*models.Form, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forms: %w", err)
	}
	defer rows.Close()

	var forms []*models.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forms: %w", err)
	}

	return forms, nil
}

func scanForm(row pgx.Row) (*models.Form, error) {
	var f models.Form
	var status string
	var ratingsJSON []byte
	var quizID, quizTitle, createdBy sql.NullString
	var submittedAt sql.NullTime

	err := row.Scan(
		&f.ID,
		&f.Token,
		&f.UserID,
		&status,
		&ratingsJSON,
		&quizID,
		&quizTitle,
		&f.CreatedAt,
		&f.UpdatedAt,
		&submittedAt,
		&f.ExpiresAt,
		&createdBy,
	)
	if err != nil {
		return nil, err
	}

	f.Status = models.FormStatus(status)
	f.QuizID = quizID.String
	f.QuizTitle = quizTitle.String
	f.CreatedBy = createdBy.String
	if submittedAt.Valid {
		f.SubmittedAt = &submittedAt.Time
	}

	if err := json.Unmarshal(ratingsJSON, &f.Ratings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ratings: %w", err)
	}

	return &f, nil
}

// --- API clients ---

// GetClientByApiKey retrieves an API client by its key, or nil when unknown
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}
	return nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
