package spell

import (
	"strings"
	"text/template"

	"github.com/quickspell/core/errors"
)

// SelectionContext exposes the selected item of one frame to templates.
type SelectionContext struct {
	Kind  string
	Label string
	Data  string
}

// FrameContext is the per-frame template context, keyed by spell id. A CMD
// action on a nested spell can reference selections made in parent frames:
//
//	{{.Context.search_files.Selection.Data}}
type FrameContext struct {
	Selection SelectionContext
	Query     string
	SpellID   string
}

// templateData is the root object templates render against.
type templateData struct {
	Context map[string]FrameContext
}

// Render executes one template string against the frame contexts. Missing
// keys render as empty strings rather than failing, matching the behavior of
// an empty selection. Rendered values are data only; they are never passed
// through a shell.
func Render(tmpl string, ctx map[string]FrameContext) (string, error) {
	t, err := template.New("action").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", errors.TemplateRender(tmpl, err)
	}

	var b strings.Builder
	if err := t.Execute(&b, templateData{Context: ctx}); err != nil {
		return "", errors.TemplateRender(tmpl, err)
	}

	// missingkey=zero prints "<no value>" for absent map entries.
	return strings.ReplaceAll(b.String(), "<no value>", ""), nil
}

// RenderArgv renders each argv element independently. The argv shape is
// fixed before any payload is interpolated, so provider-sourced strings can
// never inject additional arguments or shell syntax.
func RenderArgv(argv []string, ctx map[string]FrameContext) ([]string, error) {
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		rendered, err := Render(arg, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}
