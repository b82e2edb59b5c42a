package catalog

import (
	"github.com/mwantia/poifilters/pkg/poi"
	"golang.org/x/text/collate"
)

// cache is the ranked set of user-defined and taxonomy-derived filters.
// A nil filters slice means the set must be rebuilt.
type cache struct {
	filters []*poi.Filter
	col     *collate.Collator
}

func (c *cache) valid() bool {
	return c.filters != nil
}

func (c *cache) invalidate() {
	c.filters = nil
}

func (c *cache) rebuild(filters []*poi.Filter) {
	c.filters = append(make([]*poi.Filter, 0, len(filters)), filters...)
	Sort(c.filters, c.col)
}

func (c *cache) find(id string) (*poi.Filter, bool) {
	for _, f := range c.filters {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

func (c *cache) insert(f *poi.Filter) {
	if !c.valid() {
		return
	}
	c.filters = append(c.filters, f)
	Sort(c.filters, c.col)
}

func (c *cache) replace(f *poi.Filter) {
	if !c.valid() {
		return
	}
	for i, existing := range c.filters {
		if existing.ID == f.ID {
			c.filters[i] = f
			Sort(c.filters, c.col)
			return
		}
	}
	c.insert(f)
}

func (c *cache) remove(id string) {
	for i, f := range c.filters {
		if f.ID == id {
			c.filters = append(c.filters[:i], c.filters[i+1:]...)
			return
		}
	}
}
