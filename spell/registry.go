package spell

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quickspell/core/errors"
	"github.com/quickspell/core/logging"
	"github.com/quickspell/core/schema"
)

// LoadError records one definition file that failed to load. The registry as
// a whole still loads with the remaining valid spells.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Registry holds the loaded spell definitions, keyed by id. It is immutable
// after load; reloading produces a fresh Registry.
type Registry struct {
	spells map[string]*Spell
	errs   []LoadError
}

// LoadDir loads every *.yml / *.yaml file under dir, one spell per file.
// A parse or validation failure in one file is recorded and that spell is
// omitted. The returned error is non-nil only for structural problems: the
// directory missing or unreadable.
func LoadDir(dir string) (*Registry, error) {
	log := logging.NewLogger("registry")

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.SpellsNotFound(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSpellsNotFound, "failed to read spells directory").
			WithDetail("path", dir)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to compile spell schema")
	}

	reg := &Registry{spells: make(map[string]*Spell)}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		s, err := loadFile(path, validator)
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("Skipping spell definition")
			reg.errs = append(reg.errs, LoadError{Path: path, Err: err})
			continue
		}

		if _, dup := reg.spells[s.ID]; dup {
			err := errors.SpellInvalid(path, fmt.Sprintf("duplicate spell id '%s'", s.ID))
			log.WithField("path", path).WithError(err).Warn("Skipping spell definition")
			reg.errs = append(reg.errs, LoadError{Path: path, Err: err})
			continue
		}

		reg.spells[s.ID] = s
	}

	log.WithField("spells", len(reg.spells)).WithField("errors", len(reg.errs)).Debug("Loaded spell registry")
	return reg, nil
}

// loadFile parses and validates a single definition file.
func loadFile(path string, validator *schema.Validator) (*Spell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.SpellInvalid(path, err.Error())
	}

	if err := validator.Validate(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSpellInvalid, "schema violation").
			WithDetail("path", path)
	}

	s, err := Decode(raw)
	if err != nil {
		return nil, errors.SpellInvalid(path, err.Error())
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get returns the spell with the given id.
func (r *Registry) Get(id string) (*Spell, bool) {
	s, ok := r.spells[id]
	return s, ok
}

// Len returns the number of loaded spells.
func (r *Registry) Len() int {
	return len(r.spells)
}

// Errors returns the per-file load errors recorded during LoadDir.
func (r *Registry) Errors() []LoadError {
	return r.errs
}

// ListEnabled returns the enabled spells sorted by name, for breadcrumb and
// menu display.
func (r *Registry) ListEnabled() []*Spell {
	var out []*Spell
	for _, s := range r.spells {
		if s.Enabled {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MainProviders returns the enabled spells whose providers feed the merged
// root catalog, in name order for a deterministic interleave.
func (r *Registry) MainProviders() []*Spell {
	var out []*Spell
	for _, s := range r.spells {
		if s.Enabled && s.Category == CategoryMain {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve looks up a spell by id or alias.
func (r *Registry) Resolve(key string) (*Spell, bool) {
	if s, ok := r.spells[key]; ok {
		return s, true
	}
	for _, s := range r.spells {
		if s.Alias != "" && s.Alias == key {
			return s, true
		}
	}
	return nil, false
}
