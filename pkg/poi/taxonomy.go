package poi

// Type is a node of the POI taxonomy: either a top-level category
// (Category is empty) or a type within a category.
type Type struct {
	Key      string
	Category string
	Name     string
}

// IsCategory reports whether t is a top-level category.
func (t Type) IsCategory() bool {
	return t.Category == ""
}

// CategoryKey returns the category that t belongs to, or its own key.
func (t Type) CategoryKey() string {
	if t.IsCategory() {
		return t.Key
	}
	return t.Category
}

// FilterID is the id of the filter derived from t.
func (t Type) FilterID() string {
	return StandardPrefix + t.Key
}

// Taxonomy is the source of built-in POI categories and types.
type Taxonomy interface {
	// Initialized reports whether the taxonomy has been loaded.
	Initialized() bool
	// TopVisible lists the entries shown as top-level filters.
	TopVisible() []Type
	// TypeByKey resolves a category or type by key.
	TypeByKey(key string) (Type, bool)
	// CategoryByName resolves a category by its lowercased key name.
	CategoryByName(name string) (Type, bool)
	// Translate returns the localized display name of t.
	Translate(t Type) string
	// Match returns every type whose translated name has a word starting with query.
	Match(query string) []Type
}

// DerivedFilter builds the immutable filter for a single taxonomy entry.
func DerivedFilter(t Type, tx Taxonomy) *Filter {
	f := &Filter{
		ID:            t.FilterID(),
		Name:          tx.Translate(t),
		AcceptedTypes: AcceptedTypes{},
		Standard:      true,
	}
	if t.IsCategory() {
		f.AcceptCategory(t.Key)
	} else {
		f.AcceptSubTypes(t.Category, t.Key)
	}
	return f
}
