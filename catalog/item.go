// Package catalog parses provider output into typed items.
//
// Providers emit tab-delimited text on stdout, one record per line:
//
//	KIND<TAB>DISPLAY<TAB>PAYLOAD
//
// Malformed lines are skipped and counted, never fatal.
package catalog

import "strings"

// Item is one selectable entry in the palette.
type Item struct {
	// Kind tags the item (e.g. APP, FILE, DIR, LINK, SPELL, CMD). The set is
	// open: providers define their own kinds.
	Kind string `json:"kind"`
	// Display is the human-readable label shown in the list.
	Display string `json:"display"`
	// Payload is an opaque string carried to the action layer: a path, URL,
	// spell id, or command argument.
	Payload string `json:"payload"`
}

// ParseLine parses a single provider output line. It returns false for blank
// lines, lines with fewer than three tab-separated fields, or lines with an
// empty kind, display, or payload.
func ParseLine(line string) (Item, bool) {
	if strings.TrimSpace(line) == "" {
		return Item{}, false
	}

	fields := strings.SplitN(line, "\t", 3)
	if len(fields) < 3 {
		return Item{}, false
	}

	item := Item{
		Kind:    strings.TrimSpace(fields[0]),
		Display: fields[1],
		Payload: fields[2],
	}
	if item.Kind == "" || item.Display == "" || item.Payload == "" {
		return Item{}, false
	}

	return item, true
}
