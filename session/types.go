// Package session owns the mutable palette state: the navigation stack, the
// current query and ranked items, and the status machine. All mutation goes
// through one mutex; the outside world observes only immutable snapshots.
package session

import (
	"github.com/quickspell/core/catalog"
	"github.com/quickspell/core/fuzzy"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusBooting    Status = "booting"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Frame is one level of the navigation stack: an active spell plus the
// query/selection state captured for it. Pushing a new frame preserves the
// parent untouched, so popping restores the prior search exactly.
type Frame struct {
	SpellID  string
	Query    string
	Items    []catalog.Item
	Ranked   []fuzzy.Ranked
	Selected int
	Skipped  int
}

// selection returns the currently selected item, clamped into the ranked
// list, or nil when the filtered list is empty.
func (f *Frame) selection() *catalog.Item {
	if len(f.Ranked) == 0 {
		return nil
	}
	idx := f.Selected
	if idx > len(f.Ranked)-1 {
		idx = len(f.Ranked) - 1
	}
	if idx < 0 {
		idx = 0
	}
	item := f.Ranked[idx].Item
	return &item
}

// clampSelection pulls the selected index back into range after the ranked
// list changed underneath it.
func (f *Frame) clampSelection() {
	if len(f.Ranked) == 0 {
		f.Selected = 0
		return
	}
	if f.Selected > len(f.Ranked)-1 {
		f.Selected = len(f.Ranked) - 1
	}
	if f.Selected < 0 {
		f.Selected = 0
	}
}
