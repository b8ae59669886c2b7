package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formcheck/pkg/model"
	"github.com/goliatone/go-formcheck/pkg/pathexpr"
	"github.com/goliatone/go-formcheck/pkg/validation"
)

// Fix walks the user through every failing field until keys validate, the
// user declines, or maxRounds rounds have run. Answers are written into root
// in place. Fields that cannot be written (for example the placeholder leaf
// of an empty list) are reported once and skipped afterwards.
//
// It returns whether root validates when it stops.
func Fix(ctx context.Context, driver Driver, engine *validation.Engine, keys []string, root map[string]any, maxRounds int) (bool, error) {
	if driver == nil {
		return false, errors.New("prompt: driver is required")
	}
	if engine == nil {
		return false, errors.New("prompt: engine is required")
	}
	if maxRounds <= 0 {
		maxRounds = 1
	}

	skipped := make(map[string]bool)
	for round := 0; round < maxRounds; round++ {
		failures := editable(checkByKey(engine, keys, root), skipped)
		if len(failures) == 0 {
			break
		}

		proceed, err := driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("%d field(s) need attention. Fix them now?", len(failures)),
			Default: true,
		})
		if err != nil {
			return false, err
		}
		if !proceed {
			break
		}

		for _, failure := range failures {
			answer, err := driver.Input(ctx, InputConfig{
				Message:   failure.FieldID,
				Help:      failure.ErrorMsg,
				Default:   currentValue(failure.FieldID, root),
				Validator: answerValidator(engine, failure.key),
			})
			if err != nil {
				return false, err
			}
			if err := pathexpr.Set(root, failure.FieldID, answer); err != nil {
				skipped[failure.FieldID] = true
				if err := driver.Info(ctx, fmt.Sprintf("%s cannot be edited here: %v", failure.FieldID, err)); err != nil {
					return false, err
				}
			}
		}
	}

	remaining := failed(engine.Check(keys, root))
	if len(remaining) == 0 {
		return true, driver.Info(ctx, "All fields are valid.")
	}
	for _, failure := range remaining {
		if err := driver.Info(ctx, fmt.Sprintf("%s: %s", failure.FieldID, failure.ErrorMsg)); err != nil {
			return false, err
		}
	}
	return false, nil
}

func failed(results []model.FieldNotification) []model.FieldNotification {
	var out []model.FieldNotification
	for _, r := range results {
		if !r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

type keyedFailure struct {
	model.FieldNotification
	key string
}

// checkByKey runs keys one at a time so each failing field remembers the
// key whose chain rejected it.
func checkByKey(engine *validation.Engine, keys []string, root map[string]any) []keyedFailure {
	var out []keyedFailure
	for _, key := range keys {
		for _, r := range failed(engine.Check([]string{key}, root)) {
			out = append(out, keyedFailure{FieldNotification: r, key: key})
		}
	}
	return out
}

func editable(failures []keyedFailure, skipped map[string]bool) []keyedFailure {
	var out []keyedFailure
	for _, f := range failures {
		if skipped[f.FieldID] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// answerValidator rejects answers the key's chain would reject, so the
// prompt asks again before anything is written.
func answerValidator(engine *validation.Engine, key string) func(string) error {
	return func(answer string) error {
		if msg := engine.CheckValue(key, answer); msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

func currentValue(id string, root map[string]any) string {
	value, ok := pathexpr.Lookup(id, root)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
