// Package condition parses and evaluates the inline guards attached to
// validation keys.
//
// Supported syntax:
//   - truthiness: `businessInformation.goodStanding`
//   - comparisons: `a.b == "X"`, `a.b === 'X'`, `count != 3`, `flag !== true`
//   - composition: `!`, `&&`, `||` and parentheses
//
// `==` and `!=` coerce the value to the literal's type, so `count == "3"`
// holds for the number 3. `===` and `!==` require the value to already have
// the literal's type: strings, numbers and booleans never convert into each
// other. `null` matches a missing path or a nil value under both forms.
//
// Paths may contain `*`; they are bound to the indices of the leaf being
// validated, so `location.addresses.*.country == "CA"` evaluated for leaf
// index 2 reads `location.addresses[2].country`. Expressions are parsed once
// and interpreted; no code is evaluated dynamically.
package condition

import (
	"errors"
	"strings"
	"sync"
)

// ErrUnresolvedPath is returned when a comparison reads a path that does not
// exist in the root object.
var ErrUnresolvedPath = errors.New("condition: path does not resolve")

// Scope is the evaluation input: the root data object and the wildcard
// indices of the current leaf.
type Scope struct {
	Root    any
	Indices []int
}

// Expr is a parsed condition.
type Expr interface {
	Eval(scope Scope) (bool, error)
}

// Func adapts a typed predicate into an Expr.
type Func func(scope Scope) (bool, error)

// Eval delegates to the underlying function.
func (fn Func) Eval(scope Scope) (bool, error) {
	return fn(scope)
}

type always struct{}

func (always) Eval(Scope) (bool, error) { return true, nil }

// Parse compiles text into an Expr. Blank text always evaluates to true.
func Parse(text string) (Expr, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return always{}, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return always{}, nil
	}
	return parseExpression(tokens)
}

// Cache memoises parsed expressions by their exact text. Parse failures are
// cached too so a broken rule is not re-parsed on every keystroke.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	expr Expr
	err  error
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the parsed expression for text.
func (c *Cache) Get(text string) (Expr, error) {
	if c == nil {
		return Parse(text)
	}
	c.mu.RLock()
	entry, ok := c.entries[text]
	c.mu.RUnlock()
	if ok {
		return entry.expr, entry.err
	}

	expr, err := Parse(text)
	c.mu.Lock()
	c.entries[text] = cacheEntry{expr: expr, err: err}
	c.mu.Unlock()
	return expr, err
}

// Len reports how many distinct texts are cached.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
