package memory

import (
	"context"

	"github.com/aretw0/homeview/pkg/domain"
)

// Catalog implements ports.CatalogLoader over a fixed catalog.
type Catalog struct {
	catalog domain.Catalog
}

// NewCatalog creates a loader that always returns c.
func NewCatalog(c domain.Catalog) *Catalog {
	return &Catalog{catalog: c}
}

// Load returns a copy of the catalog so callers can't mutate the loader's slices.
func (c *Catalog) Load(ctx context.Context) (domain.Catalog, error) {
	out := domain.Catalog{
		Logos:   make([]domain.Logo, len(c.catalog.Logos)),
		Courses: make([]domain.Course, len(c.catalog.Courses)),
	}
	copy(out.Logos, c.catalog.Logos)
	copy(out.Courses, c.catalog.Courses)
	return out, nil
}
