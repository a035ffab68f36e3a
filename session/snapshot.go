package session

import "github.com/quickspell/core/catalog"

// Snapshot is a self-contained, immutable view of the session. Every field
// is copied out under the session lock; consumers may hold a snapshot for as
// long as they like without observing later mutations.
type Snapshot struct {
	Status     Status   `json:"status"`
	SpellNames []string `json:"spellNames"`
	Query      string   `json:"query"`
	Filtering  bool     `json:"filtering"`

	// Items is the visible window over the ranked list, at most TopN long.
	Items      []catalog.Item `json:"items"`
	TotalItems int            `json:"totalItems"`

	SelectedIndex int           `json:"selectedIndex"`
	Selected      *catalog.Item `json:"selected,omitempty"`
	Actions       []string      `json:"actions,omitempty"`

	SkippedLines int    `json:"skippedLines,omitempty"`
	Err          string `json:"error,omitempty"`
}

// Breadcrumb joins the spell names of the navigation stack for display,
// e.g. "Main > Files".
func (s Snapshot) Breadcrumb() string {
	out := ""
	for i, name := range s.SpellNames {
		if i > 0 {
			out += " > "
		}
		out += name
	}
	return out
}
