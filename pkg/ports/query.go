package ports

import (
	"context"

	"github.com/aretw0/homeview/pkg/domain"
)

// QueryExecutor runs a query descriptor against the remote collaborator.
// It is treated as an opaque async function: descriptor -> (payload, error).
type QueryExecutor[T any] interface {
	Execute(ctx context.Context, desc domain.QueryDescriptor) (T, error)
}

// QueryExecutorFunc adapts a function to QueryExecutor.
type QueryExecutorFunc[T any] func(ctx context.Context, desc domain.QueryDescriptor) (T, error)

// Execute calls f(ctx, desc).
func (f QueryExecutorFunc[T]) Execute(ctx context.Context, desc domain.QueryDescriptor) (T, error) {
	return f(ctx, desc)
}

// CardsExecutor is the executor shape used by the home screen.
type CardsExecutor = QueryExecutor[domain.CardsPayload]
