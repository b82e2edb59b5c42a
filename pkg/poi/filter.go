package poi

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// StandardPrefix marks filters derived from a single taxonomy type (id = prefix + type key).
	StandardPrefix = "std_"
	// UserPrefix is the conventional prefix of user-defined filter ids.
	UserPrefix = "user_"

	CustomFilterID       = UserPrefix + "custom_id"
	SearchByNameFilterID = UserPrefix + "by_name"
	ShowAllFilterID      = StandardPrefix + "show_all"
	NameFinderFilterID   = "name_finder"
)

// SubTypes is the set of accepted subcategory keys of one category.
// A nil SubTypes accepts the whole category.
type SubTypes map[string]struct{}

// NewSubTypes builds a set from the given keys.
func NewSubTypes(keys ...string) SubTypes {
	st := make(SubTypes, len(keys))
	for _, key := range keys {
		st[key] = struct{}{}
	}
	return st
}

// Keys returns the subcategory keys in sorted order.
func (st SubTypes) Keys() []string {
	keys := make([]string, 0, len(st))
	for key := range st {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AcceptedTypes maps a category key to the subcategories accepted within it.
type AcceptedTypes map[string]SubTypes

// Categories returns the category keys in sorted order.
func (at AcceptedTypes) Categories() []string {
	keys := make([]string, 0, len(at))
	for key := range at {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy that keeps whole-category markers intact.
func (at AcceptedTypes) Clone() AcceptedTypes {
	clone := make(AcceptedTypes, len(at))
	for category, sub := range at {
		if sub == nil {
			clone[category] = nil
			continue
		}
		clone[category] = NewSubTypes(sub.Keys()...)
	}
	return clone
}

// Normalize returns a copy with lowercased category keys. Keys that collide
// after lowercasing are merged and a whole-category marker wins.
func (at AcceptedTypes) Normalize() AcceptedTypes {
	normalized := make(AcceptedTypes, len(at))
	for category, sub := range at {
		key := strings.ToLower(strings.TrimSpace(category))
		current, seen := normalized[key]
		switch {
		case seen && current == nil:
		case sub == nil:
			normalized[key] = nil
		case seen:
			for k := range sub {
				current[k] = struct{}{}
			}
		default:
			normalized[key] = NewSubTypes(sub.Keys()...)
		}
	}
	return normalized
}

// Filter is a named selection over the POI taxonomy.
type Filter struct {
	ID            string
	Name          string
	AcceptedTypes AcceptedTypes
	FilterByName  string
	Standard      bool
}

// NewFilter creates an empty user-defined filter.
func NewFilter(id, name string) *Filter {
	return &Filter{
		ID:            id,
		Name:          name,
		AcceptedTypes: AcceptedTypes{},
	}
}

// AcceptCategory accepts every type within category.
func (f *Filter) AcceptCategory(category string) *Filter {
	if f.AcceptedTypes == nil {
		f.AcceptedTypes = AcceptedTypes{}
	}
	f.AcceptedTypes[category] = nil
	return f
}

// AcceptSubTypes adds subtypes to category unless the whole category is already accepted.
// Without subtypes it changes nothing.
func (f *Filter) AcceptSubTypes(category string, subtypes ...string) *Filter {
	if len(subtypes) == 0 {
		return f
	}
	if f.AcceptedTypes == nil {
		f.AcceptedTypes = AcceptedTypes{}
	}
	current, ok := f.AcceptedTypes[category]
	if ok && current == nil {
		return f
	}
	if current == nil {
		current = SubTypes{}
		f.AcceptedTypes[category] = current
	}
	for _, sub := range subtypes {
		current[sub] = struct{}{}
	}
	return f
}

// AcceptsAll reports whether the filter places no category restriction.
func (f *Filter) AcceptsAll() bool {
	return len(f.AcceptedTypes) == 0
}

// IsShowAll reports whether the filter matches everything.
func (f *Filter) IsShowAll() bool {
	return f.AcceptsAll() && f.Name == ""
}

// IsUserDefined reports whether the filter is persisted by the store.
func (f *Filter) IsUserDefined() bool {
	return !f.Standard
}

// Accepts reports whether a POI of category/subtype passes the category restriction.
func (f *Filter) Accepts(category, subtype string) bool {
	if f.AcceptsAll() {
		return true
	}
	sub, ok := f.AcceptedTypes[category]
	if !ok {
		return false
	}
	if sub == nil {
		return true
	}
	_, ok = sub[subtype]
	return ok
}

// MatchesName applies the free-text restriction (case-insensitive substring).
func (f *Filter) MatchesName(name string) bool {
	if f.FilterByName == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(f.FilterByName))
}

// Matches combines Accepts and MatchesName.
func (f *Filter) Matches(category, subtype, name string) bool {
	return f.Accepts(category, subtype) && f.MatchesName(name)
}

// Clear drops every category and the name restriction.
func (f *Filter) Clear() {
	f.AcceptedTypes = AcceptedTypes{}
	f.FilterByName = ""
}

// SimplifiedID strips the standard or user prefix, as used for icon lookup.
func (f *Filter) SimplifiedID() string {
	if strings.HasPrefix(f.ID, StandardPrefix) {
		return strings.TrimPrefix(f.ID, StandardPrefix)
	}
	return strings.TrimPrefix(f.ID, UserPrefix)
}

// CheckStorable reports ErrInvalidFilter for a filter whose category rows
// would not load back: one without accepted types, with an empty category key
// or with an empty subtype set.
func (f *Filter) CheckStorable() error {
	if f == nil || f.ID == "" {
		return ErrInvalidFilter
	}
	if f.AcceptsAll() {
		return fmt.Errorf("filter '%s' accepts no categories: %w", f.ID, ErrInvalidFilter)
	}
	for category, sub := range f.AcceptedTypes {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("filter '%s' has an empty category: %w", f.ID, ErrInvalidFilter)
		}
		if sub != nil && len(sub) == 0 {
			return fmt.Errorf("filter '%s' accepts no types of '%s': %w", f.ID, category, ErrInvalidFilter)
		}
	}
	return nil
}

// Clone returns a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := *f
	clone.AcceptedTypes = f.AcceptedTypes.Clone()
	return &clone
}

// IsReservedID reports whether id belongs to a built-in filter that can never be mutated.
func IsReservedID(id string) bool {
	switch id {
	case CustomFilterID, SearchByNameFilterID, ShowAllFilterID, NameFinderFilterID:
		return true
	}
	return strings.HasPrefix(id, StandardPrefix)
}
