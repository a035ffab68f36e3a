// Package spell loads and models declarative item-source definitions.
//
// A spell is a named search surface: one provider producing items, plus an
// ordered set of labeled actions. Definitions live in YAML files, one spell
// per file, validated against the embedded JSON schema before decoding.
package spell

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/moby/patternmatcher"

	"github.com/quickspell/core/errors"
)

// MainLabel is the label of a spell's default action, triggered by the
// primary select gesture.
const MainLabel = "MAIN"

// CategoryMain marks spells whose providers feed the merged root catalog.
const CategoryMain = "main"

// ActionKind discriminates the action variants.
type ActionKind string

const (
	// ActionCmd runs an external command rendered from an argv template.
	ActionCmd ActionKind = "CMD"
	// ActionSpell descends into another spell's catalog.
	ActionSpell ActionKind = "SPELL"
)

// ProviderSpec describes the executable that produces a spell's items.
type ProviderSpec struct {
	Command string   `yaml:"command" toml:"command" mapstructure:"command" jsonschema:"description=Executable that emits KIND<TAB>DISPLAY<TAB>PAYLOAD lines"`
	Args    []string `yaml:"args,omitempty" toml:"args,omitempty" mapstructure:"args" jsonschema:"description=Arguments passed to the provider executable"`
}

// Action is one labeled entry in a spell's action set. Kind selects the
// variant: CMD actions carry an argv template, SPELL actions carry a target
// spell id.
type Action struct {
	Kind   ActionKind `yaml:"type" toml:"type" mapstructure:"type" jsonschema:"required,enum=CMD,enum=SPELL,description=Action variant"`
	Label  string     `yaml:"name,omitempty" toml:"name,omitempty" mapstructure:"name" jsonschema:"description=Action label; defaults to MAIN"`
	If     string     `yaml:"if,omitempty" toml:"if,omitempty" mapstructure:"if" jsonschema:"description=Optional condition template; the action is skipped when it evaluates false"`
	Cmd    []string   `yaml:"cmd,omitempty" toml:"cmd,omitempty" mapstructure:"cmd" jsonschema:"description=Argv template for CMD actions; a plain string is split on whitespace"`
	Target string     `yaml:"spell,omitempty" toml:"spell,omitempty" mapstructure:"spell" jsonschema:"description=Target spell id for SPELL actions"`
}

// Spell is a named, declaratively configured search surface.
type Spell struct {
	ID        string       `yaml:"id" toml:"id" mapstructure:"id" jsonschema:"required,description=Unique spell id"`
	Name      string       `yaml:"name" toml:"name" mapstructure:"name" jsonschema:"required,description=Display name used in the breadcrumb"`
	Alias     string       `yaml:"alias,omitempty" toml:"alias,omitempty" mapstructure:"alias" jsonschema:"description=Optional short alias"`
	Enabled   bool         `yaml:"enabled" toml:"enabled" mapstructure:"enabled" jsonschema:"description=Disabled spells are loaded but never listed or invoked"`
	Category  string       `yaml:"category,omitempty" toml:"category,omitempty" mapstructure:"category" jsonschema:"description=Set to 'main' to feed this provider into the merged root catalog"`
	Provider  ProviderSpec `yaml:"provider" toml:"provider" mapstructure:"provider" jsonschema:"required"`
	Streaming bool         `yaml:"streaming,omitempty" toml:"streaming,omitempty" mapstructure:"streaming" jsonschema:"description=Deliver provider output in throttled batches instead of waiting for completion"`
	Preview   string       `yaml:"preview,omitempty" toml:"preview,omitempty" mapstructure:"preview" jsonschema:"description=Optional preview command template"`
	Exclude   []string     `yaml:"exclude,omitempty" toml:"exclude,omitempty" mapstructure:"exclude" jsonschema:"description=Ignore-style patterns matched against item payloads"`
	Actions   []Action     `yaml:"actions" toml:"actions" mapstructure:"actions" jsonschema:"required,description=Ordered action set; exactly one action carries the MAIN label"`
}

// Decode builds a Spell from a YAML-decoded generic map. Plain-string
// providers and cmd fields are accepted and split on whitespace, which keeps
// hand-written definitions terse while the rendered values stay argv-safe.
func Decode(raw map[string]interface{}) (*Spell, error) {
	var s Spell
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &s,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(providerScalarHook, argvScalarHook),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}

	// Empty labels mean MAIN.
	for i := range s.Actions {
		if s.Actions[i].Label == "" {
			s.Actions[i].Label = MainLabel
		}
	}

	return &s, nil
}

var (
	typeOfProviderSpec = reflect.TypeOf(ProviderSpec{})
	typeOfStringSlice  = reflect.TypeOf([]string(nil))
)

// providerScalarHook turns `provider: "ls -1 /Applications"` into a
// ProviderSpec with split command and args.
func providerScalarHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != typeOfProviderSpec || from.Kind() != reflect.String {
		return data, nil
	}
	fields := strings.Fields(data.(string))
	if len(fields) == 0 {
		return ProviderSpec{}, nil
	}
	return ProviderSpec{Command: fields[0], Args: fields[1:]}, nil
}

// argvScalarHook turns `cmd: "open {{.Context.files.Selection.Data}}"` into
// an argv slice. Splitting happens before rendering, so interpolated payloads
// never grow extra argv elements.
func argvScalarHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != typeOfStringSlice || from.Kind() != reflect.String {
		return data, nil
	}
	return strings.Fields(data.(string)), nil
}

// Validate checks spell invariants beyond what the JSON schema expresses.
func (s *Spell) Validate() error {
	if s.ID == "" {
		return errors.New(errors.ErrCodeSpellInvalid, "spell id must not be empty")
	}
	if s.Name == "" {
		return errors.New(errors.ErrCodeSpellInvalid, fmt.Sprintf("spell '%s' has no name", s.ID))
	}
	if s.Provider.Command == "" {
		return errors.New(errors.ErrCodeSpellInvalid, fmt.Sprintf("spell '%s' has no provider", s.ID))
	}
	if len(s.Actions) == 0 {
		return errors.New(errors.ErrCodeSpellInvalid, fmt.Sprintf("spell '%s' has no actions", s.ID))
	}

	mains := 0
	seen := make(map[string]bool, len(s.Actions))
	for _, a := range s.Actions {
		if seen[a.Label] {
			return errors.New(errors.ErrCodeSpellInvalid,
				fmt.Sprintf("spell '%s' has duplicate action label '%s'", s.ID, a.Label))
		}
		seen[a.Label] = true
		if a.Label == MainLabel {
			mains++
		}
		switch a.Kind {
		case ActionCmd:
			if len(a.Cmd) == 0 {
				return errors.New(errors.ErrCodeSpellInvalid,
					fmt.Sprintf("spell '%s' action '%s' has an empty cmd", s.ID, a.Label))
			}
		case ActionSpell:
			if a.Target == "" {
				return errors.New(errors.ErrCodeSpellInvalid,
					fmt.Sprintf("spell '%s' action '%s' has no target spell", s.ID, a.Label))
			}
		default:
			return errors.New(errors.ErrCodeSpellInvalid,
				fmt.Sprintf("spell '%s' action '%s' has unknown type '%s'", s.ID, a.Label, a.Kind))
		}
	}
	if mains != 1 {
		return errors.New(errors.ErrCodeSpellInvalid,
			fmt.Sprintf("spell '%s' must have exactly one MAIN action, found %d", s.ID, mains))
	}

	return nil
}

// FindAction returns the action carrying the given label, or nil.
func (s *Spell) FindAction(label string) *Action {
	for i := range s.Actions {
		if s.Actions[i].Label == label {
			return &s.Actions[i]
		}
	}
	return nil
}

// ExcludeMatcher compiles the spell's exclude patterns. Returns nil when the
// spell declares none.
func (s *Spell) ExcludeMatcher() (*patternmatcher.PatternMatcher, error) {
	if len(s.Exclude) == 0 {
		return nil, nil
	}
	pm, err := patternmatcher.New(s.Exclude)
	if err != nil {
		return nil, errors.SpellInvalid(s.ID, fmt.Sprintf("bad exclude pattern: %v", err))
	}
	return pm, nil
}
