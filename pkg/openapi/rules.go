package openapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formcheck/pkg/pathexpr"
	"github.com/goliatone/go-formcheck/pkg/rules"
)

var requestMediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// RuleSetFromDocument loads an OpenAPI 3 document and returns the rules
// implied by the request body of operationID. Operations without an id can
// be addressed as "<method>:<path>", e.g. "post:/clients".
//
// Keys follow the body structure: nested objects add dot segments and array
// items add a "*" segment.
func RuleSetFromDocument(ctx context.Context, data []byte, operationID string) (rules.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi rules: document payload is empty")
	}
	if strings.TrimSpace(operationID) == "" {
		return nil, errors.New("openapi rules: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi rules: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi rules: validate: %w", err)
	}

	operation, err := findOperation(spec, operationID)
	if err != nil {
		return nil, err
	}
	schema := requestSchema(operation)
	if schema == nil {
		return nil, fmt.Errorf("openapi rules: operation %q has no request body schema", operationID)
	}

	w := &walker{visiting: make(map[*openapi3.Schema]bool)}
	if err := w.walk(schema, nil, false); err != nil {
		return nil, err
	}
	collected := w.rules

	return func(r *rules.Registry) {
		for _, rule := range collected {
			r.Register(rule.key, rule.validators...)
		}
	}, nil
}

// RuleSetFromOperation is RuleSetFromDocument for a loaded Document; errors
// name the document location.
func RuleSetFromOperation(ctx context.Context, doc Document, operationID string) (rules.RuleSet, error) {
	set, err := RuleSetFromDocument(ctx, doc.raw, operationID)
	if err != nil && doc.location != "" {
		return nil, fmt.Errorf("%w (%s)", err, doc.location)
	}
	return set, err
}

func findOperation(spec *openapi3.T, operationID string) (*openapi3.Operation, error) {
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi rules: document does not contain any paths")
	}
	paths := spec.Paths.Map()
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, path := range names {
		item := paths[path]
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			if op.OperationID == operationID || strings.ToLower(method)+":"+path == operationID {
				return op, nil
			}
		}
	}
	return nil, fmt.Errorf("openapi rules: operation %q not found", operationID)
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type fieldRule struct {
	key        string
	validators []rules.Validator
}

type walker struct {
	rules    []fieldRule
	visiting map[*openapi3.Schema]bool
}

func (w *walker) walk(schema *openapi3.Schema, segments []pathexpr.Segment, required bool) error {
	if schema == nil || w.visiting[schema] {
		return nil
	}
	w.visiting[schema] = true
	defer delete(w.visiting, schema)

	if len(segments) > 0 {
		validators, err := fieldValidators(schema, required)
		if err != nil {
			return fmt.Errorf("openapi rules: property %q: %w", pathexpr.Format(segments), err)
		}
		if len(validators) > 0 {
			w.rules = append(w.rules, fieldRule{key: pathexpr.Format(segments), validators: validators})
		}
	}

	if hasType(schema, "array") && schema.Items != nil {
		items := appendSegment(segments, pathexpr.Segment{Name: pathexpr.Wildcard, Wildcard: true})
		return w.walk(schema.Items.Value, items, false)
	}

	if err := w.walkProperties(schema, segments); err != nil {
		return err
	}
	for _, part := range schema.AllOf {
		if part == nil || part.Value == nil {
			continue
		}
		if err := w.walkProperties(part.Value, segments); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkProperties(schema *openapi3.Schema, segments []pathexpr.Segment) error {
	if len(schema.Properties) == 0 {
		return nil
	}
	requiredSet := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		requiredSet[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		next := appendSegment(segments, pathexpr.Segment{Name: name})
		if err := w.walk(ref.Value, next, requiredSet[name]); err != nil {
			return err
		}
	}
	return nil
}

func fieldValidators(schema *openapi3.Schema, required bool) ([]rules.Validator, error) {
	var out []rules.Validator
	if required {
		out = append(out, rules.Required(""))
	}
	if schema.MinLength > 0 {
		out = append(out, rules.MinLength(int(schema.MinLength), ""))
	}
	if schema.MaxLength != nil {
		out = append(out, rules.MaxLength(int(*schema.MaxLength), ""))
	}
	if schema.Pattern != "" {
		re, err := regexp.Compile(schema.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", schema.Pattern, err)
		}
		out = append(out, rules.PatternRegexp(re, ""))
	}
	if schema.Format == "email" {
		out = append(out, rules.Email(""))
	}
	if len(schema.Enum) > 0 {
		values := make([]string, 0, len(schema.Enum))
		for _, v := range schema.Enum {
			values = append(values, enumString(v))
		}
		out = append(out, rules.OneOf(values, ""))
	}
	if schema.Min != nil || schema.Max != nil {
		out = append(out, numericBounds(schema.Min, schema.Max))
	}
	return out, nil
}

func numericBounds(min, max *float64) rules.Validator {
	switch {
	case min != nil && max != nil:
		return rules.Range(*min, *max, "")
	case min != nil:
		return rules.Range(*min, math.Inf(1), "This value must be at least "+formatFloat(*min))
	default:
		return rules.Range(math.Inf(-1), *max, "This value must be at most "+formatFloat(*max))
	}
}

func hasType(schema *openapi3.Schema, typ string) bool {
	if schema.Type == nil {
		return false
	}
	for _, candidate := range schema.Type.Slice() {
		if candidate == typ {
			return true
		}
	}
	return false
}

func appendSegment(segments []pathexpr.Segment, seg pathexpr.Segment) []pathexpr.Segment {
	out := make([]pathexpr.Segment, len(segments), len(segments)+1)
	copy(out, segments)
	return append(out, seg)
}

func enumString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return formatFloat(value)
	default:
		return fmt.Sprint(value)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
