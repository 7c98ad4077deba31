package ports

import (
	"context"

	"github.com/aretw0/homeview/pkg/domain"
)

// SnapshotStore defines the interface for persisting ActionState snapshots.
// This lets the display name and menu flag survive a restart.
type SnapshotStore interface {
	// Save persists the snapshot under key.
	Save(ctx context.Context, key string, state domain.ActionState) error

	// Load retrieves the snapshot stored under key.
	// Returns domain.ErrSnapshotNotFound if nothing is stored.
	Load(ctx context.Context, key string) (domain.ActionState, error)

	// Delete removes the snapshot stored under key.
	Delete(ctx context.Context, key string) error

	// List returns the keys that currently hold a snapshot.
	List(ctx context.Context) ([]string, error)
}
