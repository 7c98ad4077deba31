package ports

import (
	"context"

	"github.com/aretw0/homeview/pkg/domain"
)

// ProfileFetcher retrieves the profile shown next to the greeting.
type ProfileFetcher interface {
	Fetch(ctx context.Context) (domain.Profile, error)
}

// CatalogLoader loads the static sections of the home screen.
type CatalogLoader interface {
	Load(ctx context.Context) (domain.Catalog, error)
}
