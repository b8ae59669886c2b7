package validation

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-formcheck/pkg/condition"
	"github.com/goliatone/go-formcheck/pkg/model"
	"github.com/goliatone/go-formcheck/pkg/notify"
	"github.com/goliatone/go-formcheck/pkg/pathexpr"
	"github.com/goliatone/go-formcheck/pkg/rules"
)

// Option customises an Engine.
type Option func(*Engine)

// WithBus sets the bus that receives field notifications and summaries.
func WithBus(bus *notify.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConditionCache shares a parsed-condition cache between engines.
func WithConditionCache(cache *condition.Cache) Option {
	return func(e *Engine) {
		e.conditions = cache
	}
}

// WithPredicate gates key with a typed predicate instead of the condition
// text embedded in the key.
func WithPredicate(key string, predicate condition.Func) Option {
	return func(e *Engine) {
		if predicate == nil {
			return
		}
		if e.predicates == nil {
			e.predicates = make(map[string]condition.Expr)
		}
		e.predicates[key] = predicate
	}
}

// Engine validates path-expression keys against a root data object using the
// validator chains of a registry. The root is only read.
type Engine struct {
	registry   *rules.Registry
	bus        *notify.Bus
	logger     *slog.Logger
	conditions *condition.Cache
	predicates map[string]condition.Expr
}

// New constructs an Engine. A nil registry behaves as an empty one.
func New(registry *rules.Registry, options ...Option) *Engine {
	e := &Engine{registry: registry}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.registry == nil {
		e.registry = rules.NewRegistry()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.conditions == nil {
		e.conditions = condition.NewCache()
	}
	return e
}

type mode int

const (
	modeFirstFailure mode = iota
	modeExhaustive
)

type emitter func(model.FieldNotification)

// Validate checks every key and reports whether all of them passed. Each key
// is always checked, but within a key leaves stop at the first failing one
// and chains stop at the first failing validator. With notify set, every
// validator evaluation publishes a field notification, passing ones
// included, so subscribers can clear stale errors.
func (e *Engine) Validate(keys []string, root any, notify bool) bool {
	return e.run(keys, root, modeFirstFailure, e.publisher(notify))
}

// RunValidation is the exhaustive variant of Validate: every leaf of every
// key is checked even after failures, and with notify set exactly one
// notification per leaf is published in leaf order, carrying the first
// failing message or "".
func (e *Engine) RunValidation(keys []string, root any, notify bool) bool {
	return e.run(keys, root, modeExhaustive, e.publisher(notify))
}

// Check runs exhaustively without publishing and returns one result per
// leaf, valid ones included.
func (e *Engine) Check(keys []string, root any) []model.FieldNotification {
	var out []model.FieldNotification
	e.run(keys, root, modeExhaustive, func(n model.FieldNotification) {
		out = append(out, n)
	})
	return out
}

// CheckValue runs the chain registered under key against value, ignoring
// the key's path and condition, and returns the first failing message or "".
func (e *Engine) CheckValue(key string, value any) string {
	return firstFailure(e.registry.Lookup(key), value)
}

// Summarize returns the failing fields for keys and whether the form is
// valid. When a bus is configured it also publishes the submission-time
// batch notification.
func (e *Engine) Summarize(keys []string, root any) ([]model.FieldNotification, bool) {
	var failures []model.FieldNotification
	for _, result := range e.Check(keys, root) {
		if !result.Valid() {
			failures = append(failures, result)
		}
	}
	if e.bus != nil {
		batch := model.BatchNotification{
			Source: model.SourceSubmission,
			Fields: failures,
		}
		if len(failures) > 0 {
			batch.Title = "Some fields need your attention"
		}
		notify.Publish(e.bus, notify.BatchNotifications, batch)
	}
	return failures, len(failures) == 0
}

func (e *Engine) publisher(enabled bool) emitter {
	if !enabled || e.bus == nil {
		return func(model.FieldNotification) {}
	}
	return func(n model.FieldNotification) {
		notify.Publish(e.bus, notify.FieldNotifications, n)
	}
}

func (e *Engine) run(keys []string, root any, m mode, emit emitter) bool {
	valid := true
	for _, key := range keys {
		if !e.validateKey(key, root, m, emit) {
			valid = false
		}
	}
	return valid
}

func (e *Engine) validateKey(key string, root any, m mode, emit emitter) bool {
	chain := e.registry.Lookup(key)
	if len(chain) == 0 {
		e.logger.Debug("validation: no validators registered", "key", key)
		return true
	}

	expr, err := pathexpr.Parse(key)
	if err != nil {
		e.logger.Warn("validation: malformed key skipped", "key", key, "error", err)
		return true
	}

	guard := e.guard(expr)
	valid := true
	for _, leaf := range pathexpr.Expand(expr, root) {
		if e.validateLeaf(leaf, root, guard, chain, m, emit) {
			continue
		}
		valid = false
		if m == modeFirstFailure {
			break
		}
	}
	return valid
}

func (e *Engine) guard(expr pathexpr.Expression) condition.Expr {
	if predicate, ok := e.predicates[expr.Key]; ok {
		return predicate
	}
	if !expr.HasCondition() {
		return nil
	}
	parsed, err := e.conditions.Get(expr.Condition)
	if err != nil {
		e.logger.Debug("validation: condition does not parse, rule skipped", "key", expr.Key, "error", err)
		return condition.Func(func(condition.Scope) (bool, error) { return false, err })
	}
	return parsed
}

func (e *Engine) validateLeaf(leaf pathexpr.Leaf, root any, guard condition.Expr, chain []rules.Validator, m mode, emit emitter) bool {
	if guard != nil {
		applies, err := guard.Eval(condition.Scope{Root: root, Indices: leaf.Indices})
		if err != nil {
			e.logger.Debug("validation: condition not evaluable, rule skipped", "field", leaf.Path, "error", err)
			applies = false
		}
		if !applies {
			emit(model.FieldNotification{FieldID: leaf.Path})
			return true
		}
	}

	if m == modeExhaustive {
		msg := firstFailure(chain, leaf.Value)
		emit(model.FieldNotification{FieldID: leaf.Path, ErrorMsg: msg})
		return msg == ""
	}

	for _, validator := range chain {
		msg := validator(leaf.Value)
		emit(model.FieldNotification{FieldID: leaf.Path, ErrorMsg: msg})
		if msg != "" {
			return false
		}
	}
	return true
}

func firstFailure(chain []rules.Validator, value any) string {
	for _, validator := range chain {
		if msg := validator(value); msg != "" {
			return msg
		}
	}
	return ""
}
