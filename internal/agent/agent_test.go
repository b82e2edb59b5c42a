package agent

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/poifilters/internal/config"
	"github.com/mwantia/poifilters/pkg/db/store"
	"github.com/mwantia/poifilters/pkg/log"
	"github.com/mwantia/poifilters/pkg/poi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initialTaxonomy = `
categories:
  - key: shop
    name: Shop
`

const updatedTaxonomy = `
categories:
  - key: shop
    name: Shop
  - key: tourism
    name: Tourism
`

func testConfig(t *testing.T) *config.Config {
	cfg := config.GetDefault()
	cfg.Metadata.SQLite.Path = filepath.Join(t.TempDir(), "poi_filters.db")
	return &cfg
}

func filterIDs(filters []*poi.Filter) []string {
	result := make([]string, len(filters))
	for i, f := range filters {
		result[i] = f.ID
	}
	return result
}

func TestAgent_OpenClose(t *testing.T) {
	ctx := context.Background()
	a := NewAgentWithLogger(testConfig(t), log.Discard())

	require.NoError(t, a.Open(ctx))
	require.NoError(t, a.Open(ctx))

	cat := a.Catalog()
	require.NotNil(t, cat)
	assert.Contains(t, filterIDs(cat.ListTop(ctx)), "std_sustenance")

	food := poi.NewFilter("user_food", "Food").AcceptCategory("sustenance")
	require.NoError(t, cat.Create(ctx, food))

	require.NoError(t, a.Close(ctx))
	assert.Nil(t, a.Catalog())

	// A second agent on the same database sees the filter.
	b := NewAgentWithLogger(a.cfg, log.Discard())
	require.NoError(t, b.Open(ctx))
	t.Cleanup(func() { b.Close(context.Background()) })

	got, ok := b.Catalog().GetByID(ctx, "user_food")
	require.True(t, ok)
	assert.Equal(t, "Food", got.Name)
}

func TestAgent_OpenFailsOnMissingTaxonomy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Taxonomy.File = filepath.Join(t.TempDir(), "missing.yaml")

	a := NewAgentWithLogger(cfg, log.Discard())
	assert.Error(t, a.Open(context.Background()))
}

func TestAgent_ServicesFromContainer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var buf bytes.Buffer
	logger := log.NewWriterLogger("poifilters", config.LogConfig{Level: "DEBUG", NoColor: true}, &buf)

	a := NewAgentWithLogger(cfg, logger)
	require.NoError(t, a.Open(ctx))
	t.Cleanup(func() { a.Close(context.Background()) })

	fs, err := container.Resolve[store.FilterStore](ctx, a.sc)
	require.NoError(t, err)
	assert.Same(t, a.store, fs)

	tx, err := container.Resolve[poi.Taxonomy](ctx, a.sc)
	require.NoError(t, err)
	assert.Same(t, a.taxonomy, tx)

	food := poi.NewFilter("user_food", "Food").AcceptCategory("sustenance")
	require.NoError(t, a.Catalog().Create(ctx, food))

	out := buf.String()
	assert.Contains(t, out, "[poifilters/store] Opened sqlite database")
	assert.Contains(t, out, "[poifilters/catalog] Created filter filter=user_food")
}

func TestAgent_ReopenAfterClose(t *testing.T) {
	ctx := context.Background()
	a := NewAgentWithLogger(testConfig(t), log.Discard())

	require.NoError(t, a.Open(ctx))
	first := a.sc
	require.NoError(t, a.Close(ctx))
	assert.Nil(t, a.sc)

	require.NoError(t, a.Open(ctx))
	t.Cleanup(func() { a.Close(context.Background()) })
	assert.NotSame(t, first, a.sc)
	assert.NotNil(t, a.Catalog())
}

func TestAgent_FailedOpenLeavesNothingOpen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	good := cfg.Metadata.SQLite.Path
	cfg.Metadata.SQLite.Path = filepath.Join(t.TempDir(), "missing", "dir", "poi_filters.db")

	a := NewAgentWithLogger(cfg, log.Discard())
	require.Error(t, a.Open(ctx))
	assert.Nil(t, a.Catalog())
	assert.Nil(t, a.store)
	assert.Nil(t, a.sc)

	cfg.Metadata.SQLite.Path = good
	require.NoError(t, a.Open(ctx))
	t.Cleanup(func() { a.Close(context.Background()) })
	assert.NotNil(t, a.Catalog())
}

func TestAgent_ServeReloadsTaxonomy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(initialTaxonomy), 0644))

	cfg := testConfig(t)
	cfg.Taxonomy.File = path
	cfg.Taxonomy.Watch = true
	cfg.ShutdownTimeout = "1s"

	a := NewAgentWithLogger(cfg, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return a.Catalog() != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, filterIDs(a.Catalog().ListTop(ctx)), "std_tourism")

	require.Eventually(t, func() bool {
		// Rewrite until the watcher has picked it up.
		os.WriteFile(path, []byte(updatedTaxonomy), 0644)
		cat := a.Catalog()
		return cat != nil && contains(filterIDs(cat.ListTop(ctx)), "std_tourism")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
