package catalog

import "github.com/mwantia/poifilters/pkg/poi"

type ItemKind int

const (
	FilterItem ItemKind = iota
	TypeItem
)

// Item is one row of a filter listing: either a filter or a raw taxonomy type.
type Item struct {
	Kind   ItemKind
	Filter *poi.Filter
	Type   poi.Type
	Name   string
}

func filterItem(f *poi.Filter) Item {
	return Item{Kind: FilterItem, Filter: f, Name: f.Name}
}

func typeItem(t poi.Type, name string) Item {
	return Item{Kind: TypeItem, Type: t, Name: name}
}

// FilterID is the id to resolve through Catalog.GetByID when the item is selected.
func (i Item) FilterID() string {
	if i.Kind == TypeItem {
		return i.Type.FilterID()
	}
	return i.Filter.ID
}
