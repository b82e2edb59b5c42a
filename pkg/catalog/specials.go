package catalog

import "github.com/mwantia/poifilters/pkg/poi"

// Specials holds the fixed built-in filters. They are created once with the
// catalog and never change afterwards.
type Specials struct {
	Custom       *poi.Filter
	SearchByName *poi.Filter
	ShowAll      *poi.Filter
	NameFinder   *poi.Filter
}

// SpecialNames are the display names of the built-in filters.
type SpecialNames struct {
	Custom       string
	SearchByName string
	NameFinder   string
}

func defaultSpecialNames() SpecialNames {
	return SpecialNames{
		Custom:       "Custom filter",
		SearchByName: "Search by name",
		NameFinder:   "Online search",
	}
}

func newSpecials(names SpecialNames) Specials {
	return Specials{
		Custom:       &poi.Filter{ID: poi.CustomFilterID, Name: names.Custom, AcceptedTypes: poi.AcceptedTypes{}, Standard: true},
		SearchByName: &poi.Filter{ID: poi.SearchByNameFilterID, Name: names.SearchByName, AcceptedTypes: poi.AcceptedTypes{}, Standard: true},
		ShowAll:      &poi.Filter{ID: poi.ShowAllFilterID, AcceptedTypes: poi.AcceptedTypes{}, Standard: true},
		NameFinder:   &poi.Filter{ID: poi.NameFinderFilterID, Name: names.NameFinder, AcceptedTypes: poi.AcceptedTypes{}, Standard: true},
	}
}

func (s Specials) all() []*poi.Filter {
	return []*poi.Filter{s.Custom, s.SearchByName, s.ShowAll, s.NameFinder}
}
