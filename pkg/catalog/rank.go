package catalog

import (
	"sort"

	"github.com/mwantia/poifilters/pkg/poi"
	"golang.org/x/text/collate"
)

// Rank buckets; lower ranks are listed first.
const (
	RankSearchByName = 0
	RankUser         = 1
	RankStandard     = 2
	RankAcceptsAll   = 3
	RankCustom       = 4
	RankNameFinder   = 5
)

// Rank returns the presentation bucket of f.
func Rank(f *poi.Filter) int {
	switch {
	case f.ID == poi.SearchByNameFilterID:
		return RankSearchByName
	case f.AcceptsAll():
		return RankAcceptsAll
	case f.ID == poi.CustomFilterID:
		return RankCustom
	case f.ID == poi.NameFinderFilterID:
		return RankNameFinder
	case f.Standard:
		return RankStandard
	}
	return RankUser
}

// Sort orders filters by rank, then by collated name and finally by id, so
// the result never depends on the input order. The collator is not safe for
// concurrent use.
func Sort(filters []*poi.Filter, col *collate.Collator) {
	sort.Slice(filters, func(i, j int) bool {
		ri, rj := Rank(filters[i]), Rank(filters[j])
		if ri != rj {
			return ri < rj
		}
		if c := col.CompareString(filters[i].Name, filters[j].Name); c != 0 {
			return c < 0
		}
		return filters[i].ID < filters[j].ID
	})
}
