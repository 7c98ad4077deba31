package middleware

import (
	"context"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
)

type redactMiddleware struct {
	next ports.SnapshotStore
	mask string
}

// NewRedactMiddleware replaces the display name with mask before it reaches
// the backend. With an empty mask the name is dropped and a restored screen
// waits for the profile lookup to fill it in again.
func NewRedactMiddleware(mask string) Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactMiddleware{next: next, mask: mask}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, key string, state domain.ActionState) error {
	if state.Name != "" {
		state.Name = m.mask
	}
	return m.next.Save(ctx, key, state)
}

func (m *redactMiddleware) Load(ctx context.Context, key string) (domain.ActionState, error) {
	return m.next.Load(ctx, key)
}

func (m *redactMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
