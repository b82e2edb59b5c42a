package store

import (
	"context"

	"github.com/mwantia/poifilters/pkg/poi"
)

// FilterStore persists user-defined POI filters
type FilterStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error
	Version(ctx context.Context) (int, error)

	// Filter operations
	CreateFilter(ctx context.Context, filter *poi.Filter) error
	EditFilter(ctx context.Context, filter *poi.Filter) error
	DeleteFilter(ctx context.Context, id string) error
	LoadFilters(ctx context.Context) ([]*poi.Filter, error)
}
