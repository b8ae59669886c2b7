package validation

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/goliatone/go-formcheck/pkg/model"
	"github.com/goliatone/go-formcheck/pkg/notify"
	"github.com/goliatone/go-formcheck/pkg/rules"
)

func TestPropertyWildcardFanOut(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(-50, 50), 0, 20).Draw(rt, "values")

		items := make([]any, 0, len(values))
		for _, v := range values {
			items = append(items, v)
		}

		var calls []any
		reg := rules.NewRegistry()
		reg.Register("a.list.*.x", countingValidator(&calls, rules.NotNegative(rejectNegative)))

		engine := New(reg)
		results := engine.Check([]string{"a.list.*.x"}, listRoot(items...))

		if len(values) == 0 {
			if diff := cmp.Diff([]any{""}, calls); diff != "" {
				rt.Fatalf("empty list must validate once against blank (-want +got):\n%s", diff)
			}
			return
		}
		if len(calls) != len(values) {
			rt.Fatalf("expected %d invocations, got %d", len(values), len(calls))
		}
		for i, result := range results {
			if want := fmt.Sprintf("a.list[%d].x", i); result.FieldID != want {
				rt.Fatalf("leaf %d: expected id %q, got %q", i, want, result.FieldID)
			}
			if failed := values[i] < 0; failed == result.Valid() {
				rt.Fatalf("leaf %d: value %d reported %+v", i, values[i], result)
			}
		}
	})
}

func TestPropertyValidationIsIdempotent(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfN(rapid.StringMatching(`[a-z]{0,6}`), 0, 8).Draw(rt, "names")
		exhaustive := rapid.Bool().Draw(rt, "exhaustive")

		contacts := make([]any, 0, len(names))
		for _, name := range names {
			contacts = append(contacts, map[string]any{"name": name})
		}
		root := map[string]any{"contacts": contacts}

		reg := rules.NewRegistry()
		reg.Register("contacts.*.name", rules.Required("required"), rules.MaxLength(4, "too long"))

		bus := notify.New()
		var seen []model.FieldNotification
		notify.Subscribe(bus, notify.FieldNotifications, func(n model.FieldNotification) {
			seen = append(seen, n)
		})
		engine := New(reg, WithBus(bus))

		run := func() ([]model.FieldNotification, bool) {
			seen = nil
			var ok bool
			if exhaustive {
				ok = engine.RunValidation([]string{"contacts.*.name"}, root, true)
			} else {
				ok = engine.Validate([]string{"contacts.*.name"}, root, true)
			}
			return seen, ok
		}

		firstSeen, firstOK := run()
		secondSeen, secondOK := run()
		if firstOK != secondOK {
			rt.Fatalf("results differ between runs: %v then %v", firstOK, secondOK)
		}
		if diff := cmp.Diff(firstSeen, secondSeen); diff != "" {
			rt.Fatalf("notifications differ between runs (-first +second):\n%s", diff)
		}
	})
}

func TestPropertyFalseConditionNeverInvokesValidators(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		items := make([]any, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, map[string]any{"x": i, "kind": "skip"})
		}
		root := map[string]any{"a": map[string]any{"list": items}}

		invoked := 0
		key := `a.list.*.x(a.list.*.kind == "check")`
		reg := rules.NewRegistry()
		reg.Register(key, func(any) string {
			invoked++
			return "fail"
		})

		engine := New(reg)
		if !engine.RunValidation([]string{key}, root, false) {
			rt.Fatalf("gated rule must pass")
		}
		if invoked != 0 {
			rt.Fatalf("expected no invocations, got %d", invoked)
		}
	})
}
