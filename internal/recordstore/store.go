// Package recordstore persists the latest assessment record per owner.
// Every backend has overwrite semantics: a new record replaces the old one.
package recordstore

import (
	"context"
	"errors"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// ErrNoStores is returned when a registry has nothing to write to
var ErrNoStores = errors.New("no record stores registered")

// Store is a key-value sink for assessment records
type Store interface {
	// Put replaces the owner's record
	Put(ctx context.Context, owner string, rec *assessment.Record) error

	// Latest returns the owner's record, or nil when there is none
	Latest(ctx context.Context, owner string) (*assessment.Record, error)

	// Type returns the backend name
	Type() string

	// HealthCheck checks if the backend is reachable
	HealthCheck(ctx context.Context) error
}

// Invalidator is implemented by cache stores that can drop an owner's record
type Invalidator interface {
	Invalidate(ctx context.Context, owner string) error
}

// BaseStore provides common functionality for stores
type BaseStore struct {
	storeType string
}

// Type returns the backend name
func (s *BaseStore) Type() string {
	return s.storeType
}
