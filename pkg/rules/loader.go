package rules

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec describes a validator entry inside a rule document.
type Spec struct {
	Name    string         `json:"name" yaml:"name"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Factory builds a validator from a document entry.
type Factory func(spec Spec) (Validator, error)

// Catalog maps validator names used in rule documents to factories.
type Catalog map[string]Factory

// DefaultCatalog exposes the built-in validators to rule documents.
func DefaultCatalog() Catalog {
	return Catalog{
		"required": func(s Spec) (Validator, error) { return Required(s.Message), nil },
		"minLength": func(s Spec) (Validator, error) {
			n, err := intParam(s.Params, "min")
			if err != nil {
				return nil, err
			}
			return MinLength(n, s.Message), nil
		},
		"maxLength": func(s Spec) (Validator, error) {
			n, err := intParam(s.Params, "max")
			if err != nil {
				return nil, err
			}
			return MaxLength(n, s.Message), nil
		},
		"exactLength": func(s Spec) (Validator, error) {
			n, err := intParam(s.Params, "length")
			if err != nil {
				return nil, err
			}
			return ExactLength(n, s.Message), nil
		},
		"pattern": func(s Spec) (Validator, error) {
			expr, err := stringParam(s.Params, "pattern")
			if err != nil {
				return nil, err
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
			}
			return PatternRegexp(re, s.Message), nil
		},
		"email":               func(s Spec) (Validator, error) { return Email(s.Message), nil },
		"phone":               func(s Spec) (Validator, error) { return Phone(s.Message), nil },
		"caPostalCode":        func(s Spec) (Validator, error) { return CanadianPostalCode(s.Message), nil },
		"usZipCode":           func(s Spec) (Validator, error) { return USZipCode(s.Message), nil },
		"numeric":             func(s Spec) (Validator, error) { return Numeric(s.Message), nil },
		"alphanumeric":        func(s Spec) (Validator, error) { return Alphanumeric(s.Message), nil },
		"noSpecialCharacters": func(s Spec) (Validator, error) { return NoSpecialCharacters(s.Message), nil },
		"notNegative":         func(s Spec) (Validator, error) { return NotNegative(s.Message), nil },
		"range": func(s Spec) (Validator, error) {
			min, err := floatParam(s.Params, "min")
			if err != nil {
				return nil, err
			}
			max, err := floatParam(s.Params, "max")
			if err != nil {
				return nil, err
			}
			return Range(min, max, s.Message), nil
		},
		"oneOf": func(s Spec) (Validator, error) {
			values, err := stringsParam(s.Params, "values")
			if err != nil {
				return nil, err
			}
			return OneOf(values, s.Message), nil
		},
		"date": func(s Spec) (Validator, error) {
			layout, _ := stringParam(s.Params, "layout")
			return Date(layout, s.Message), nil
		},
		"minYearsAgo": func(s Spec) (Validator, error) {
			n, err := intParam(s.Params, "years")
			if err != nil {
				return nil, err
			}
			return MinYearsAgo(n, nil, s.Message), nil
		},
	}
}

type ruleDocument struct {
	Rules map[string][]Spec `json:"rules" yaml:"rules"`
}

type loadedRule struct {
	key        string
	validators []Validator
}

// LoadFS walks fsys for JSON/YAML rule documents and returns a RuleSet that
// registers every rule found. Documents are validated eagerly: unknown
// validator names and bad parameters fail the load. A nil fsys yields an
// empty rule set.
func LoadFS(fsys fs.FS, catalog Catalog) (RuleSet, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	var loaded []loadedRule
	if fsys == nil {
		return func(*Registry) {}, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isRuleFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("rules: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(doc.Rules))
		for key := range doc.Rules {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("rules: file %s defines an empty key", path)
			}
			validators, err := buildChain(doc.Rules[key], catalog)
			if err != nil {
				return fmt.Errorf("rules: file %s key %q: %w", path, key, err)
			}
			loaded = append(loaded, loadedRule{key: key, validators: validators})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return func(r *Registry) {
		for _, rule := range loaded {
			r.Register(rule.key, rule.validators...)
		}
	}, nil
}

func buildChain(specs []Spec, catalog Catalog) ([]Validator, error) {
	out := make([]Validator, 0, len(specs))
	for idx, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		factory, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("entry %d: unknown validator %q", idx, spec.Name)
		}
		validator, err := factory(spec)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", idx, name, err)
		}
		out = append(out, validator)
	}
	return out, nil
}

func parseDocument(data []byte, source string) (ruleDocument, error) {
	var doc ruleDocument
	if len(strings.TrimSpace(string(data))) == 0 {
		return ruleDocument{}, fmt.Errorf("rules: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = ruleDocument{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return ruleDocument{}, fmt.Errorf("rules: parse %s: invalid JSON or YAML", source)
		}
	}
	if doc.Rules == nil {
		return ruleDocument{}, fmt.Errorf("rules: file %s has no top-level rules map", source)
	}
	return doc, nil
}

func isRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func intParam(params map[string]any, name string) (int, error) {
	f, err := floatParam(params, name)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func floatParam(params map[string]any, name string) (float64, error) {
	raw, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing param %q", name)
	}
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("param %q: %w", name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("param %q must be a number, got %T", name, raw)
	}
}

func stringParam(params map[string]any, name string) (string, error) {
	raw, ok := params[name]
	if !ok {
		return "", fmt.Errorf("missing param %q", name)
	}
	text, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", name, raw)
	}
	return text, nil
}

func stringsParam(params map[string]any, name string) ([]string, error) {
	raw, ok := params[name]
	if !ok {
		return nil, fmt.Errorf("missing param %q", name)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("param %q must be a list, got %T", name, raw)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	return out, nil
}
