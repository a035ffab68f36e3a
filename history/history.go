// Package history persists invocation counts so frequently used actions can
// be surfaced. The file is plain YAML in the data directory; losing it only
// loses usage statistics.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is the recorded usage of one spell action.
type Entry struct {
	SpellID  string    `yaml:"spell"`
	Label    string    `yaml:"action"`
	Count    int       `yaml:"count"`
	LastUsed time.Time `yaml:"last_used"`
}

// Store records action invocations and persists them to a YAML file. Each
// Record writes the file inline, so it is always current.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]*Entry
}

// Open loads the history file at path, creating an empty store when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]*Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	for i := range entries {
		e := entries[i]
		s.entries[key(e.SpellID, e.Label)] = &e
	}
	return s, nil
}

// Record bumps the usage count for one spell action and persists the store.
// Persistence errors are swallowed; history must never break a dispatch.
func (s *Store) Record(spellID, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(spellID, label)
	e, ok := s.entries[k]
	if !ok {
		e = &Entry{SpellID: spellID, Label: label}
		s.entries[k] = e
	}
	e.Count++
	e.LastUsed = time.Now().UTC()

	_ = s.saveLocked()
}

// Entries returns all recorded entries, most used first, ties broken by
// recency.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})
	return out
}

// Count returns the recorded invocation count for one spell action.
func (s *Store) Count(spellID, label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key(spellID, label)]; ok {
		return e.Count
	}
	return 0
}

func (s *Store) saveLocked() error {
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SpellID != entries[j].SpellID {
			return entries[i].SpellID < entries[j].SpellID
		}
		return entries[i].Label < entries[j].Label
	})

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func key(spellID, label string) string {
	return spellID + "\x00" + label
}
