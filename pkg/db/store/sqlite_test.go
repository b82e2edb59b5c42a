package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mwantia/poifilters/internal/config"
	"github.com/mwantia/poifilters/pkg/db/models"
	"github.com/mwantia/poifilters/pkg/log"
	"github.com/mwantia/poifilters/pkg/poi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func openStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	return s
}

func newPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "poi_filters.db")
}

func sampleFilter() *poi.Filter {
	f := poi.NewFilter("user_food", "Food").
		AcceptCategory("shop").
		AcceptSubTypes("sustenance", "restaurant", "cafe")
	f.FilterByName = "pizza"
	return f
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(SQLiteConfig{})
	assert.Error(t, err)
}

func TestUnavailableBeforeConnect(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(SQLiteConfig{Path: newPath(t)})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	assert.ErrorIs(t, s.CreateFilter(ctx, sampleFilter()), poi.ErrUnavailable)
	assert.ErrorIs(t, s.EditFilter(ctx, sampleFilter()), poi.ErrUnavailable)
	assert.ErrorIs(t, s.DeleteFilter(ctx, "user_food"), poi.ErrUnavailable)
	assert.ErrorIs(t, s.Health(ctx), poi.ErrUnavailable)

	filters, err := s.LoadFilters(ctx)
	assert.ErrorIs(t, err, poi.ErrUnavailable)
	assert.Empty(t, filters)
}

func TestCreateFilter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := newPath(t)

	s := openStore(t, path)
	require.NoError(t, s.CreateFilter(ctx, sampleFilter()))
	require.NoError(t, s.Close())

	fresh := openStore(t, path)
	filters, err := fresh.LoadFilters(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 1)

	want := sampleFilter()
	got := filters[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.FilterByName, got.FilterByName)
	assert.Equal(t, want.AcceptedTypes, got.AcceptedTypes)
	assert.False(t, got.Standard)
}

func TestCreateFilter_Rejects(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPath(t))

	assert.ErrorIs(t, s.CreateFilter(ctx, &poi.Filter{}), poi.ErrInvalidFilter)

	require.NoError(t, s.CreateFilter(ctx, sampleFilter()))
	assert.ErrorIs(t, s.CreateFilter(ctx, sampleFilter()), poi.ErrExists)
}

func TestCreateFilter_LowercasesCategories(t *testing.T) {
	ctx := context.Background()
	path := newPath(t)

	s := openStore(t, path)
	mixed := poi.NewFilter("user_mixed", "Mixed").
		AcceptCategory("Shop").
		AcceptSubTypes("SUSTENANCE", "cafe")
	require.NoError(t, s.CreateFilter(ctx, mixed))
	require.NoError(t, s.Close())

	filters, err := openStore(t, path).LoadFilters(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, poi.AcceptedTypes{
		"shop":       nil,
		"sustenance": poi.NewSubTypes("cafe"),
	}, filters[0].AcceptedTypes)
	assert.Equal(t, mixed.AcceptedTypes.Normalize(), filters[0].AcceptedTypes)
}

func TestCreateFilter_RejectsUnstorableTypes(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPath(t))

	everything := poi.NewFilter("user_all", "")
	assert.ErrorIs(t, s.CreateFilter(ctx, everything), poi.ErrInvalidFilter)

	emptySub := poi.NewFilter("user_emptysub", "Empty")
	emptySub.AcceptedTypes["shop"] = poi.SubTypes{}
	assert.ErrorIs(t, s.CreateFilter(ctx, emptySub), poi.ErrInvalidFilter)

	var count int64
	require.NoError(t, s.DB().Model(&models.Filter{}).Count(&count).Error)
	assert.Zero(t, count)

	// Rejected ids stay free.
	require.NoError(t, s.CreateFilter(ctx, poi.NewFilter("user_all", "All shops").AcceptCategory("shop")))

	require.NoError(t, s.CreateFilter(ctx, sampleFilter()))
	assert.ErrorIs(t, s.EditFilter(ctx, poi.NewFilter("user_food", "Food")), poi.ErrInvalidFilter)

	filters, err := s.LoadFilters(ctx)
	require.NoError(t, err)
	assert.Len(t, filters, 2)
}

func TestSQLiteStore_QueryLog(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriterLogger("store", config.LogConfig{Level: "DEBUG", NoColor: true}, &buf)

	s, err := NewSQLiteStore(SQLiteConfig{
		Path:     newPath(t),
		LogLevel: gormlogger.Info,
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.CreateFilter(ctx, sampleFilter()))

	assert.Contains(t, buf.String(), "[store]")
	assert.Contains(t, buf.String(), "INSERT INTO")
	assert.Contains(t, buf.String(), "poi_filters")
	assert.Contains(t, buf.String(), "rows=1")
}

func TestEditFilter_ReplacesCategories(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPath(t))
	require.NoError(t, s.CreateFilter(ctx, sampleFilter()))

	edited := poi.NewFilter("user_food", "Groceries").AcceptSubTypes("shop", "bakery")
	require.NoError(t, s.EditFilter(ctx, edited))

	filters, err := s.LoadFilters(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, "Groceries", filters[0].Name)
	assert.Empty(t, filters[0].FilterByName)
	assert.Equal(t, poi.AcceptedTypes{"shop": poi.NewSubTypes("bakery")}, filters[0].AcceptedTypes)

	var count int64
	require.NoError(t, s.DB().Model(&models.Category{}).Where("filter_id = ?", "user_food").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEditFilter_MissingRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPath(t))

	err := s.EditFilter(ctx, sampleFilter())
	assert.ErrorIs(t, err, poi.ErrNotFound)

	var count int64
	require.NoError(t, s.DB().Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteFilter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPath(t))
	require.NoError(t, s.CreateFilter(ctx, sampleFilter()))

	require.NoError(t, s.DeleteFilter(ctx, "user_food"))

	filters, err := s.LoadFilters(ctx)
	require.NoError(t, err)
	assert.Empty(t, filters)

	var count int64
	require.NoError(t, s.DB().Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, s.DeleteFilter(ctx, "user_food"), poi.ErrNotFound)
}

func TestLoadFilters_Grouping(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPath(t))
	db := s.DB()

	restaurant := "restaurant"
	cafe := "cafe"
	bakery := "bakery"
	require.NoError(t, db.Create(&[]models.Filter{
		{ID: "user_a", Name: "A"},
		{ID: "user_orphan", Name: "Orphan"},
	}).Error)
	require.NoError(t, db.Create(&[]models.Category{
		{FilterID: "user_a", Category: "Sustenance", Subcategory: &restaurant},
		{FilterID: "user_a", Category: "sustenance"},
		{FilterID: "user_a", Category: "sustenance", Subcategory: &cafe},
		{FilterID: "user_a", Category: "SHOP", Subcategory: &bakery},
		{FilterID: "user_missing", Category: "shop"},
	}).Error)

	filters, err := s.LoadFilters(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 1)

	assert.Equal(t, "user_a", filters[0].ID)
	assert.Equal(t, poi.AcceptedTypes{
		"sustenance": nil,
		"shop":       poi.NewSubTypes("bakery"),
	}, filters[0].AcceptedTypes)
}

func TestVersion(t *testing.T) {
	s := openStore(t, newPath(t))

	version, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.NoError(t, s.Health(context.Background()))
}
