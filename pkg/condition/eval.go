package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcheck/pkg/pathexpr"
)

type exprOr struct {
	left  Expr
	right Expr
}

func (n exprOr) Eval(scope Scope) (bool, error) {
	ok, err := n.left.Eval(scope)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return n.right.Eval(scope)
}

type exprAnd struct {
	left  Expr
	right Expr
}

func (n exprAnd) Eval(scope Scope) (bool, error) {
	ok, err := n.left.Eval(scope)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return n.right.Eval(scope)
}

type exprNot struct {
	inner Expr
}

func (n exprNot) Eval(scope Scope) (bool, error) {
	ok, err := n.inner.Eval(scope)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind literalKind
	raw  string
}

type exprCompare struct {
	path    string
	op      tokenKind
	strict  bool
	literal literal
}

func (n exprCompare) Eval(scope Scope) (bool, error) {
	value, found := lookup(scope, n.path)

	var equal bool
	switch n.literal.kind {
	case litNull:
		equal = !found || value == nil
	case litBool:
		if !found {
			return false, fmt.Errorf("%w: %s", ErrUnresolvedPath, n.path)
		}
		want := n.literal.raw == "true"
		if n.strict {
			got, ok := value.(bool)
			equal = ok && got == want
			break
		}
		got, ok := coerceBool(value)
		equal = ok && got == want
	case litNumber:
		if !found {
			return false, fmt.Errorf("%w: %s", ErrUnresolvedPath, n.path)
		}
		want, err := strconv.ParseFloat(n.literal.raw, 64)
		if err != nil {
			return false, fmt.Errorf("condition: invalid number literal %q", n.literal.raw)
		}
		if _, isString := value.(string); n.strict && isString {
			break
		}
		got, ok := coerceNumber(value)
		equal = ok && got == want
	case litString:
		if !found {
			return false, fmt.Errorf("%w: %s", ErrUnresolvedPath, n.path)
		}
		if n.strict {
			got, ok := value.(string)
			equal = ok && got == n.literal.raw
			break
		}
		equal = value != nil && coerceString(value) == n.literal.raw
	default:
		return false, fmt.Errorf("condition: unsupported literal")
	}

	if n.op == tokenNeq {
		return !equal, nil
	}
	return equal, nil
}

type exprTruthy struct {
	path string
}

func (n exprTruthy) Eval(scope Scope) (bool, error) {
	value, ok := lookup(scope, n.path)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

func lookup(scope Scope, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if strings.Contains(path, pathexpr.Wildcard) {
		path = pathexpr.Bind(path, scope.Indices)
	}
	return pathexpr.Lookup(path, scope.Root)
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed, true
		}
		return false, false
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
