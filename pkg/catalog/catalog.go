package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mwantia/poifilters/pkg/db/store"
	"github.com/mwantia/poifilters/pkg/log"
	"github.com/mwantia/poifilters/pkg/poi"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Config holds the collaborators of a Catalog. The tagged fields can be
// filled by a fabric service container.
type Config struct {
	Store    store.FilterStore `fabric:"inject"`
	Taxonomy poi.Taxonomy      `fabric:"inject"`
	Logger   log.LoggerService `fabric:"logger:catalog"`
	// Locale drives name collation. Defaults to English.
	Locale language.Tag
	Names  *SpecialNames
}

// Catalog is the single source of the available POI filters and their order.
type Catalog struct {
	mutex sync.RWMutex

	store    store.FilterStore
	taxonomy poi.Taxonomy
	specials Specials
	log      log.LoggerService
	cache    cache
}

// New creates a catalog. The filter set is built on first use.
func New(cfg Config) (*Catalog, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("catalog requires a filter store")
	}
	if cfg.Taxonomy == nil {
		return nil, fmt.Errorf("catalog requires a taxonomy")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Locale == language.Und {
		cfg.Locale = language.English
	}
	names := defaultSpecialNames()
	if cfg.Names != nil {
		names = *cfg.Names
	}

	return &Catalog{
		store:    cfg.Store,
		taxonomy: cfg.Taxonomy,
		specials: newSpecials(names),
		log:      cfg.Logger,
		cache: cache{
			col: collate.New(cfg.Locale, collate.IgnoreCase),
		},
	}, nil
}

// Specials returns the fixed built-in filters.
func (c *Catalog) Specials() Specials {
	return c.specials
}

// ListTop returns the show-all filter followed by the ranked user-defined and
// taxonomy-derived filters.
func (c *Catalog) ListTop(ctx context.Context) []*poi.Filter {
	c.mutex.RLock()
	if c.cache.valid() {
		defer c.mutex.RUnlock()
		return c.top()
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.ensure(ctx)
	return c.top()
}

// Invalidate drops the cached filter set; the next read rebuilds it.
func (c *Catalog) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache.invalidate()
}

// Reload invalidates and immediately rebuilds the filter set.
func (c *Catalog) Reload(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache.invalidate()
	c.ensure(ctx)
}

// GetByID resolves a filter from the cached set, the built-in filters or,
// for derived ids, the taxonomy.
func (c *Catalog) GetByID(ctx context.Context, id string) (*poi.Filter, bool) {
	if id == "" {
		return nil, false
	}

	c.mutex.Lock()
	c.ensure(ctx)
	f, ok := c.cache.find(id)
	c.mutex.Unlock()
	if ok {
		return f.Clone(), true
	}

	for _, special := range c.specials.all() {
		if special.ID == id {
			return special.Clone(), true
		}
	}

	if key, ok := strings.CutPrefix(id, poi.StandardPrefix); ok {
		if t, ok := c.taxonomy.TypeByKey(key); ok {
			return poi.DerivedFilter(t, c.taxonomy), true
		}
	}

	return nil, false
}

// Search lists filters for a free-text query. An empty query lists every top
// filter; otherwise the user-defined filters are followed by every taxonomy
// type whose translated name has a word starting with query.
func (c *Catalog) Search(ctx context.Context, query string) ([]Item, error) {
	top := c.ListTop(ctx)

	var items []Item
	if query == "" {
		items = make([]Item, 0, len(top))
		for _, f := range top {
			items = append(items, filterItem(f))
		}
		return items, nil
	}

	for _, f := range top {
		if f.IsUserDefined() {
			items = append(items, filterItem(f))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, t := range c.taxonomy.Match(query) {
		items = append(items, typeItem(t, c.taxonomy.Translate(t)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Create persists a new user-defined filter and adds it to the cached set.
// Filters without accepted types cannot be stored and are rejected.
func (c *Catalog) Create(ctx context.Context, f *poi.Filter) error {
	if err := c.checkMutable(f); err != nil {
		return err
	}

	if err := f.CheckStorable(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.ensure(ctx)
	stored := storedCopy(f)
	logger := c.log.With("filter", f.ID)
	if err := c.store.CreateFilter(ctx, stored); err != nil {
		logger.With("err", err).Warn("Failed to create filter")
		return err
	}

	c.cache.insert(stored)
	logger.Debug("Created filter")
	return nil
}

// Edit replaces the stored name, name restriction and categories of a filter.
func (c *Catalog) Edit(ctx context.Context, f *poi.Filter) error {
	if err := c.checkMutable(f); err != nil {
		return err
	}

	if err := f.CheckStorable(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.ensure(ctx)
	stored := storedCopy(f)
	logger := c.log.With("filter", f.ID)
	if err := c.store.EditFilter(ctx, stored); err != nil {
		logger.With("err", err).Warn("Failed to edit filter")
		return err
	}

	c.cache.replace(stored)
	logger.Debug("Edited filter")
	return nil
}

// Delete removes a user-defined filter from the store and the cached set.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.checkMutable(&poi.Filter{ID: id}); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.ensure(ctx)
	logger := c.log.With("filter", id)
	if err := c.store.DeleteFilter(ctx, id); err != nil {
		logger.With("err", err).Warn("Failed to delete filter")
		return err
	}

	c.cache.remove(id)
	logger.Debug("Deleted filter")
	return nil
}

// storedCopy is the form a user-defined filter takes once persisted.
func storedCopy(f *poi.Filter) *poi.Filter {
	stored := f.Clone()
	stored.Standard = false
	stored.AcceptedTypes = stored.AcceptedTypes.Normalize()
	return stored
}

func (c *Catalog) checkMutable(f *poi.Filter) error {
	if f == nil || f.ID == "" {
		return poi.ErrInvalidFilter
	}
	if poi.IsReservedID(f.ID) {
		c.log.With("filter", f.ID).Debug("Rejected mutation of reserved filter")
		return fmt.Errorf("filter '%s': %w", f.ID, poi.ErrReserved)
	}
	if !c.taxonomy.Initialized() {
		return poi.ErrUnavailable
	}
	return nil
}

// ensure rebuilds the cached set when needed. Callers hold the write lock.
func (c *Catalog) ensure(ctx context.Context) {
	if c.cache.valid() {
		return
	}

	filters := c.load(ctx)
	c.cache.rebuild(filters)
	c.log.Debug("Rebuilt filter catalog with %d filters", len(filters))
}

// load never fails: an unavailable or broken store yields the taxonomy filters only.
func (c *Catalog) load(ctx context.Context) []*poi.Filter {
	var filters []*poi.Filter

	if c.taxonomy.Initialized() {
		user, err := c.store.LoadFilters(ctx)
		switch {
		case err == nil:
			filters = append(filters, user...)
		case errors.Is(err, poi.ErrUnavailable):
			c.log.Debug("Filter store unavailable, listing built-in filters only")
		default:
			c.log.Warn("Failed to load user-defined filters: %v", err)
		}
	}

	for _, t := range c.taxonomy.TopVisible() {
		filters = append(filters, poi.DerivedFilter(t, c.taxonomy))
	}

	return filters
}

func (c *Catalog) top() []*poi.Filter {
	result := make([]*poi.Filter, 0, len(c.cache.filters)+1)
	result = append(result, c.specials.ShowAll.Clone())
	for _, f := range c.cache.filters {
		result = append(result, f.Clone())
	}
	return result
}
