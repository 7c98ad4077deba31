package tests

import (
	"context"
	"testing"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
)

// CatalogLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.CatalogLoader.
func CatalogLoaderContractTest(t *testing.T, loader ports.CatalogLoader, want domain.Catalog) {
	t.Helper()

	got, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading catalog: %v", err)
	}

	t.Run("Logos", func(t *testing.T) {
		if len(got.Logos) != len(want.Logos) {
			t.Fatalf("expected %d logos, got %d", len(want.Logos), len(got.Logos))
		}
		lookup := make(map[string]domain.Logo)
		for _, l := range got.Logos {
			lookup[l.Text] = l
		}
		for _, l := range want.Logos {
			if lookup[l.Text] != l {
				t.Errorf("logo %q mismatch. got %+v, want %+v", l.Text, lookup[l.Text], l)
			}
		}
	})

	t.Run("Courses", func(t *testing.T) {
		if len(got.Courses) != len(want.Courses) {
			t.Fatalf("expected %d courses, got %d", len(want.Courses), len(got.Courses))
		}
		lookup := make(map[string]domain.Course)
		for _, c := range got.Courses {
			lookup[c.Title] = c
		}
		for _, c := range want.Courses {
			if lookup[c.Title] != c {
				t.Errorf("course %q mismatch. got %+v, want %+v", c.Title, lookup[c.Title], c)
			}
		}
	})
}
