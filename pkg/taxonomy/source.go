package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/mwantia/poifilters/pkg/poi"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTaxonomy []byte

// Document is the on-disk layout of a taxonomy file.
type Document struct {
	Categories []CategoryEntry `yaml:"categories"`
}

type CategoryEntry struct {
	Key          string            `yaml:"key"`
	Name         string            `yaml:"name"`
	Hidden       bool              `yaml:"hidden,omitempty"`
	Translations map[string]string `yaml:"translations,omitempty"`
	Types        []TypeEntry       `yaml:"types,omitempty"`
}

type TypeEntry struct {
	Key          string            `yaml:"key"`
	Name         string            `yaml:"name"`
	Top          bool              `yaml:"top,omitempty"`
	Translations map[string]string `yaml:"translations,omitempty"`
}

type entry struct {
	typ          poi.Type
	translations map[string]string
	top          bool
}

// Source is a YAML-backed taxonomy with per-locale display names.
type Source struct {
	mutex sync.RWMutex

	tag     language.Tag
	locale  string
	entries []entry
	byKey   map[string]int
	init    bool
}

// NewSource creates an empty, uninitialized source for the given locale.
func NewSource(locale string) *Source {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	base, _ := tag.Base()

	return &Source{
		tag:    tag,
		locale: base.String(),
		byKey:  make(map[string]int),
	}
}

// Default returns a source loaded with the embedded taxonomy.
func Default(locale string) (*Source, error) {
	s := NewSource(locale)
	if err := s.Load(bytes.NewReader(defaultTaxonomy)); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads the taxonomy at path, or the embedded one when path is empty.
func Open(path, locale string) (*Source, error) {
	if path == "" {
		return Default(locale)
	}
	s := NewSource(locale)
	if err := s.LoadFile(path); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile replaces the taxonomy with the contents of path.
func (s *Source) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open taxonomy file: %w", err)
	}
	defer f.Close()

	return s.Load(f)
}

// Load replaces the taxonomy with the YAML document read from r.
func (s *Source) Load(r io.Reader) error {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode taxonomy: %w", err)
	}

	entries := make([]entry, 0, len(doc.Categories))
	byKey := make(map[string]int)

	add := func(e entry) error {
		if e.typ.Key == "" {
			return fmt.Errorf("taxonomy entry without key (category '%s')", e.typ.Category)
		}
		if _, exists := byKey[e.typ.Key]; exists {
			return fmt.Errorf("duplicate taxonomy key '%s'", e.typ.Key)
		}
		byKey[e.typ.Key] = len(entries)
		entries = append(entries, e)
		return nil
	}

	for _, c := range doc.Categories {
		key := strings.ToLower(c.Key)
		if err := add(entry{
			typ:          poi.Type{Key: key, Name: c.Name},
			translations: c.Translations,
			top:          !c.Hidden,
		}); err != nil {
			return err
		}
		for _, t := range c.Types {
			if err := add(entry{
				typ:          poi.Type{Key: t.Key, Category: key, Name: t.Name},
				translations: t.Translations,
				top:          t.Top && !c.Hidden,
			}); err != nil {
				return err
			}
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = entries
	s.byKey = byKey
	s.init = true
	return nil
}

func (s *Source) Initialized() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.init
}

func (s *Source) TopVisible() []poi.Type {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []poi.Type
	for _, e := range s.entries {
		if e.top {
			result = append(result, e.typ)
		}
	}
	return result
}

func (s *Source) TypeByKey(key string) (poi.Type, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	i, ok := s.byKey[key]
	if !ok {
		return poi.Type{}, false
	}
	return s.entries[i].typ, true
}

func (s *Source) CategoryByName(name string) (poi.Type, bool) {
	t, ok := s.TypeByKey(strings.ToLower(name))
	if !ok || !t.IsCategory() {
		return poi.Type{}, false
	}
	return t, true
}

func (s *Source) Translate(t poi.Type) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if i, ok := s.byKey[t.Key]; ok {
		return s.translate(s.entries[i])
	}
	return t.Name
}

func (s *Source) translate(e entry) string {
	if name, ok := e.translations[s.locale]; ok && name != "" {
		return name
	}
	if e.typ.Name != "" {
		return e.typ.Name
	}
	return e.typ.Key
}

// Match returns every entry whose translated name contains query at a word start,
// ignoring case and diacritics, ordered by translated name.
func (s *Source) Match(query string) []poi.Type {
	fold := newFolder()
	prefix := fold.String(strings.TrimSpace(query))
	if prefix == "" {
		return nil
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	type match struct {
		typ  poi.Type
		name string
	}
	var matches []match
	for _, e := range s.entries {
		name := s.translate(e)
		if matchesWordStart(fold.String(name), prefix) {
			matches = append(matches, match{typ: e.typ, name: name})
		}
	}

	col := collate.New(s.tag, collate.IgnoreCase)
	sort.SliceStable(matches, func(i, j int) bool {
		return col.CompareString(matches[i].name, matches[j].name) < 0
	})

	result := make([]poi.Type, len(matches))
	for i, m := range matches {
		result[i] = m.typ
	}
	return result
}

// Locale returns the language tag used for matching and ordering.
func (s *Source) Locale() language.Tag {
	return s.tag
}

// matchesWordStart reports whether prefix starts name or a word following a space.
// Both arguments are already folded.
func matchesWordStart(name, prefix string) bool {
	for i := 0; i < len(name); i++ {
		if i > 0 && name[i-1] != ' ' {
			continue
		}
		if strings.HasPrefix(name[i:], prefix) {
			return true
		}
	}
	return false
}

// folder strips diacritics and case folds, so "Bäckerei" and "BACKEREI"
// compare equal. Not safe for concurrent use.
type folder struct {
	t transform.Transformer
}

func newFolder() folder {
	return folder{t: transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		cases.Fold(),
		norm.NFC,
	)}
}

func (f folder) String(s string) string {
	out, _, err := transform.String(f.t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
