package matching

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// Messages holds the pongo2 templates used for match notifications. The
// context exposes label, client and field. Empty templates fall back to the
// defaults.
type Messages struct {
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
	PartialError   string `json:"partialError,omitempty" yaml:"partialError,omitempty"`
	Warning        string `json:"warning,omitempty" yaml:"warning,omitempty"`
	PartialWarning string `json:"partialWarning,omitempty" yaml:"partialWarning,omitempty"`
	Unmapped       string `json:"unmapped,omitempty" yaml:"unmapped,omitempty"`
	ErrorTitle     string `json:"errorTitle,omitempty" yaml:"errorTitle,omitempty"`
	WarningTitle   string `json:"warningTitle,omitempty" yaml:"warningTitle,omitempty"`
}

// DefaultMessages returns the built-in wording.
func DefaultMessages() Messages {
	return Messages{
		Error:          "{{ label }} is already registered to client {{ client }}.",
		PartialError:   "{{ label }} partially matches client {{ client }}.",
		Warning:        "{{ label }} looks similar to client {{ client }}. Review before continuing.",
		PartialWarning: "{{ label }} partially resembles client {{ client }}. Review before continuing.",
		Unmapped:       "The value of {{ field }} matches client {{ client }}.",
		ErrorTitle:     "Client already exists",
		WarningTitle:   "Possible matching records found",
	}
}

func (m Messages) withDefaults() Messages {
	def := DefaultMessages()
	pick := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	}
	return Messages{
		Error:          pick(m.Error, def.Error),
		PartialError:   pick(m.PartialError, def.PartialError),
		Warning:        pick(m.Warning, def.Warning),
		PartialWarning: pick(m.PartialWarning, def.PartialWarning),
		Unmapped:       pick(m.Unmapped, def.Unmapped),
		ErrorTitle:     pick(m.ErrorTitle, def.ErrorTitle),
		WarningTitle:   pick(m.WarningTitle, def.WarningTitle),
	}
}

type templateKind int

const (
	kindError templateKind = iota
	kindPartialError
	kindWarning
	kindPartialWarning
	kindUnmapped
)

type compiledMessages struct {
	templates    map[templateKind]*pongo2.Template
	errorTitle   string
	warningTitle string
}

func compileMessages(m Messages) (*compiledMessages, error) {
	m = m.withDefaults()
	sources := map[templateKind]string{
		kindError:          m.Error,
		kindPartialError:   m.PartialError,
		kindWarning:        m.Warning,
		kindPartialWarning: m.PartialWarning,
		kindUnmapped:       m.Unmapped,
	}
	out := &compiledMessages{
		templates:    make(map[templateKind]*pongo2.Template, len(sources)),
		errorTitle:   m.ErrorTitle,
		warningTitle: m.WarningTitle,
	}
	for kind, source := range sources {
		tpl, err := pongo2.FromString(source)
		if err != nil {
			return nil, fmt.Errorf("matching: compile message %q: %w", source, err)
		}
		out.templates[kind] = tpl
	}
	return out, nil
}

func (c *compiledMessages) render(kind templateKind, label, client, field string) (string, error) {
	tpl := c.templates[kind]
	ctx := pongo2.Context{
		"label":  pongo2.AsSafeValue(clean(label)),
		"client": pongo2.AsSafeValue(clean(client)),
		"field":  pongo2.AsSafeValue(clean(field)),
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("matching: render message: %w", err)
	}
	return strings.TrimSpace(out), nil
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// clean strips markup from values that arrive from the duplicate check.
// Messages are plain text, so the entities the policy produces are decoded
// again and the result is passed to templates as a safe value.
func clean(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(textSanitizer().Sanitize(trimmed)))
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
