package fuzzy

import (
	"sort"
	"strings"

	"github.com/quickspell/core/catalog"
)

// Ranked is one item that matched the query, with its computed score and the
// item's index in the original catalog.
type Ranked struct {
	Item  catalog.Item
	Score int
	Index int
}

// Rank scores items against the query and returns the matching subset in rank
// order. An empty query returns all items in catalog order with zero scores.
//
// The ordering is deterministic and total: higher score first, then shorter
// display string, then lower catalog index. Items that do not match never
// appear in the result.
func Rank(items []catalog.Item, query string) []Ranked {
	if query == "" {
		out := make([]Ranked, len(items))
		for i, item := range items {
			out[i] = Ranked{Item: item, Index: i}
		}
		return out
	}

	if literal, exact := ExactQuery(query); exact {
		return rankExact(items, literal)
	}

	var out []Ranked
	for i, item := range items {
		score, matched := Match(query, item.Display)
		if !matched {
			continue
		}
		out = append(out, Ranked{Item: item, Score: score, Index: i})
	}

	sortRanked(out)
	return out
}

// rankExact keeps items whose display contains the literal substring,
// case-insensitively. Catalog order is preserved; no scoring applies.
func rankExact(items []catalog.Item, literal string) []Ranked {
	needle := strings.ToLower(literal)

	var out []Ranked
	for i, item := range items {
		if needle != "" && !strings.Contains(strings.ToLower(item.Display), needle) {
			continue
		}
		out = append(out, Ranked{Item: item, Index: i})
	}
	return out
}

// sortRanked applies the three-level tie-break: score descending, then shorter
// display, then original catalog index. SliceStable keeps equal entries in
// input order, which already is index order.
func sortRanked(out []Ranked) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		li, lj := len(out[i].Item.Display), len(out[j].Item.Display)
		if li != lj {
			return li < lj
		}
		return out[i].Index < out[j].Index
	})
}
