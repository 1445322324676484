package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// PostgresStore keeps one row per owner in latest_assessments
type PostgresStore struct {
	BaseStore
	db *sql.DB
}

// NewPostgresStore opens a lib/pq connection
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return NewPostgresStoreWithDB(db), nil
}

// NewPostgresStoreWithDB wraps an open database handle
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		BaseStore: BaseStore{storeType: "postgres"},
		db:        db,
	}
}

// Put upserts the owner's row
func (s *PostgresStore) Put(ctx context.Context, owner string, rec *assessment.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO latest_assessments (owner, record, level, average_rating, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (owner) DO UPDATE
		SET record = EXCLUDED.record,
		    level = EXCLUDED.level,
		    average_rating = EXCLUDED.average_rating,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, owner, string(data), string(rec.Level), rec.AverageRating); err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Latest reads the owner's row
func (s *PostgresStore) Latest(ctx context.Context, owner string) (*assessment.Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM latest_assessments WHERE owner = $1`, owner).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var rec assessment.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// HealthCheck verifies PostgreSQL connectivity
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
