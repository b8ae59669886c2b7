package condition

import (
	"errors"
	"testing"
)

func eval(t *testing.T, text string, scope Scope) (bool, error) {
	t.Helper()
	expr, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", text, err)
	}
	return expr.Eval(scope)
}

func TestStrictAndLooseEquality(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"a": map[string]any{"b": "bad"},
		"c": "N",
	}
	for _, text := range []string{`c === "Y"`, `c == 'Y'`} {
		ok, err := eval(t, text, Scope{Root: root})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", text, err)
		}
		if ok {
			t.Fatalf("%s: expected false", text)
		}
	}

	ok, err := eval(t, `c !== "Y" && a.b == bad`, Scope{Root: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for inequality and bare-word literal")
	}
}

func TestWildcardPathsBindToIndices(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"location": map[string]any{
			"addresses": []any{
				map[string]any{"country": "US"},
				map[string]any{"country": "CA"},
			},
		},
	}
	expr, err := Parse(`location.addresses.*.country == "CA"`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	for idx, want := range []bool{false, true} {
		got, err := expr.Eval(Scope{Root: root, Indices: []int{idx}})
		if err != nil {
			t.Fatalf("index %d: unexpected error: %v", idx, err)
		}
		if got != want {
			t.Fatalf("index %d: got %v, want %v", idx, got, want)
		}
	}
}

func TestNumbersBoolsAndNull(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"count":   3.0,
		"enabled": "true",
		"empty":   nil,
	}
	cases := map[string]bool{
		"count == 3":         true,
		"count != 3":         false,
		"enabled == true":    true,
		"enabled == false":   false,
		"empty == null":      true,
		"missing == null":    true,
		"missing !== null":   false,
		"count != undefined": true,
		"!enabled":           false,
		"(count == 1 || count == 3) && enabled": true,
	}
	for text, want := range cases {
		got, err := eval(t, text, Scope{Root: root})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", text, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", text, got, want)
		}
	}
}

func TestUnresolvedComparisonReturnsError(t *testing.T) {
	t.Parallel()

	_, err := eval(t, `missing.path == "X"`, Scope{Root: map[string]any{}})
	if !errors.Is(err, ErrUnresolvedPath) {
		t.Fatalf("expected ErrUnresolvedPath, got %v", err)
	}

	ok, err := eval(t, `missing.path`, Scope{Root: map[string]any{}})
	if err != nil || ok {
		t.Fatalf("expected missing truthiness to be false without error, got %v, %v", ok, err)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		`a = 1`,
		`a & b`,
		`a | b`,
		`(a == 1`,
		`a == "open`,
		`a ==`,
		`== 1`,
		`a == 1 b`,
	} {
		if _, err := Parse(text); err == nil {
			t.Fatalf("Parse(%q) expected error", text)
		}
	}
}

func TestBlankConditionIsTrue(t *testing.T) {
	t.Parallel()

	ok, err := eval(t, "   ", Scope{})
	if err != nil || !ok {
		t.Fatalf("expected blank condition to be true, got %v, %v", ok, err)
	}
}

func TestFuncAdapter(t *testing.T) {
	t.Parallel()

	var expr Expr = Func(func(scope Scope) (bool, error) {
		return len(scope.Indices) == 1 && scope.Indices[0] == 2, nil
	})
	ok, err := expr.Eval(Scope{Indices: []int{2}})
	if err != nil || !ok {
		t.Fatalf("expected predicate to match, got %v, %v", ok, err)
	}
}

func TestCacheReusesParsedExpressions(t *testing.T) {
	t.Parallel()

	cache := NewCache()
	first, err := cache.Get(`a == 1`)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if _, err := cache.Get(`a == 1`); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if _, err := cache.Get(`a = 1`); err == nil {
		t.Fatalf("expected parse error to be returned from cache")
	}
	if _, err := cache.Get(`a = 1`); err == nil {
		t.Fatalf("expected cached parse error")
	}
	if cache.Len() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", cache.Len())
	}

	ok, err := first.Eval(Scope{Root: map[string]any{"a": 1}})
	if err != nil || !ok {
		t.Fatalf("expected cached expression to evaluate true, got %v, %v", ok, err)
	}
}

func TestStrictOperatorsCompareTypes(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"count":  3,
		"flag":   true,
		"code":   "3",
		"status": "true",
	}
	cases := map[string]bool{
		`count == "3"`:    true,
		`count === "3"`:   false,
		`count !== "3"`:   true,
		`count === 3`:     true,
		`code === 3`:      false,
		`code == 3`:       true,
		`code === "3"`:    true,
		`flag == "true"`:  true,
		`flag === "true"`: false,
		`flag === true`:   true,
		`status === true`: false,
		`status == true`:  true,
	}
	for text, want := range cases {
		got, err := eval(t, text, Scope{Root: root})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", text, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", text, got, want)
		}
	}
}
