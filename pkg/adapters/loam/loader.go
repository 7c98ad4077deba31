// Package loam loads the home screen catalog from a directory of markdown documents.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader implements ports.CatalogLoader on top of a Loam repository.
type Loader struct {
	Repo *loam.TypedRepository[EntryMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[EntryMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only repository at dir and wraps it in a Loader.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog dir: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog at %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[EntryMetadata](repo)), nil
}

type ordered[T any] struct {
	order int
	id    string
	item  T
}

// Load lists every document and sorts logos and courses by their order key,
// then by document ID. Documents of an unknown kind are an error.
func (l *Loader) Load(ctx context.Context) (domain.Catalog, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("loam list failed: %w", err)
	}

	var logos []ordered[domain.Logo]
	var courses []ordered[domain.Course]

	for _, doc := range docs {
		meta := doc.Data
		id := meta.ID
		if id == "" {
			id = trimExtension(doc.ID)
		}

		switch kindOf(meta.Kind, doc.ID) {
		case KindLogo:
			logos = append(logos, ordered[domain.Logo]{
				order: meta.Order,
				id:    id,
				item:  domain.Logo{Image: meta.Image, Text: meta.Text},
			})
		case KindCourse:
			caption := meta.Caption
			if caption == "" {
				caption = strings.TrimSpace(doc.Content)
			}
			courses = append(courses, ordered[domain.Course]{
				order: meta.Order,
				id:    id,
				item: domain.Course{
					Title:    meta.Title,
					Subtitle: meta.Subtitle,
					Image:    meta.Image,
					Logo:     meta.Logo,
					Author:   meta.Author,
					Avatar:   meta.Avatar,
					Caption:  caption,
				},
			})
		default:
			return domain.Catalog{}, fmt.Errorf("catalog entry %q has unknown kind %q", doc.ID, meta.Kind)
		}
	}

	return domain.Catalog{
		Logos:   sorted(logos),
		Courses: sorted(courses),
	}, nil
}

// kindOf falls back to the parent directory (logos/, courses/) when the
// frontmatter omits the kind.
func kindOf(kind, docID string) string {
	if kind != "" {
		return kind
	}
	switch filepath.Dir(filepath.ToSlash(docID)) {
	case "logos":
		return KindLogo
	case "courses":
		return KindCourse
	}
	return ""
}

func sorted[T any](entries []ordered[T]) []T {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].id < entries[j].id
	})
	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
