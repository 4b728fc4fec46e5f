// Package repository defines the storage interfaces the domain services
// depend on. Infrastructure packages provide the concrete implementations.
package repository

import (
	"context"
	"errors"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
)

// ErrProfileNotFound is returned by a ProfileStore when no record exists for
// the user. Callers synthesize a default profile instead of surfacing it.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore is the durable source of truth for user profiles.
type ProfileStore interface {
	// GetProfile returns the stored profile, or ErrProfileNotFound.
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)

	// SaveProfile writes the profile through to durable storage.
	SaveProfile(ctx context.Context, profile *model.UserProfile) error
}

// ProfileCache is the time-bounded accelerator in front of the store.
// It may drop entries at any moment; correctness never depends on it.
type ProfileCache interface {
	// GetProfile returns the cached profile or nil on miss.
	GetProfile(ctx context.Context, userID string) *model.UserProfile

	// SaveProfile refreshes the cached copy.
	SaveProfile(ctx context.Context, profile *model.UserProfile)
}

// AuditPersistence appends immutable audit records. Implementations should
// favor durable, append-only storage; records are never updated or deleted.
type AuditPersistence interface {
	SaveAuditRecord(ctx context.Context, record *model.AuditRecord) error
}
