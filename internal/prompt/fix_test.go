package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcheck/pkg/rules"
	"github.com/goliatone/go-formcheck/pkg/validation"
)

type fakeDriver struct {
	answers  map[string][]string
	confirms []bool
	asked    []string
	rejected []string
	infos    []string
	err      error
}

// Input mimics survey: answers rejected by cfg.Validator are recorded and the
// next queued answer is tried. An empty queue yields the default.
func (f *fakeDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.asked = append(f.asked, cfg.Message+"|"+cfg.Default+"|"+cfg.Help)
	for {
		queue := f.answers[cfg.Message]
		if len(queue) == 0 {
			return cfg.Default, nil
		}
		f.answers[cfg.Message] = queue[1:]
		if cfg.Validator != nil {
			if err := cfg.Validator(queue[0]); err != nil {
				f.rejected = append(f.rejected, cfg.Message+"="+queue[0]+": "+err.Error())
				continue
			}
		}
		return queue[0], nil
	}
}

func (f *fakeDriver) Confirm(context.Context, ConfirmConfig) (bool, error) {
	if len(f.confirms) == 0 {
		return true, nil
	}
	next := f.confirms[0]
	f.confirms = f.confirms[1:]
	return next, nil
}

func (f *fakeDriver) Info(_ context.Context, msg string) error {
	f.infos = append(f.infos, msg)
	return nil
}

func contactsEngine() (*validation.Engine, []string) {
	reg := rules.NewRegistry()
	reg.Register("contacts.*.email", rules.Required("email required"), rules.Email("bad email"))
	reg.Register("name", rules.Required("name required"))
	return validation.New(reg), []string{"name", "contacts.*.email"}
}

func TestFixRepairsFailingFields(t *testing.T) {
	t.Parallel()

	engine, keys := contactsEngine()
	root := map[string]any{
		"contacts": []any{
			map[string]any{"email": "ok@example.com"},
			map[string]any{"email": "broken"},
		},
	}
	driver := &fakeDriver{answers: map[string][]string{
		"name":              {"Acme"},
		"contacts[1].email": {"still-broken", "fixed@example.com"},
	}}

	ok, err := Fix(context.Background(), driver, engine, keys, root, 3)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if !ok {
		t.Fatalf("expected form to validate, infos: %v", driver.infos)
	}

	wantAsked := []string{
		"name||name required",
		"contacts[1].email|broken|bad email",
	}
	if diff := cmp.Diff(wantAsked, driver.asked); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
	wantRejected := []string{"contacts[1].email=still-broken: bad email"}
	if diff := cmp.Diff(wantRejected, driver.rejected); diff != "" {
		t.Fatalf("rejected answers mismatch (-want +got):\n%s", diff)
	}
	if root["name"] != "Acme" {
		t.Fatalf("expected name to be written, got %#v", root["name"])
	}
	contact := root["contacts"].([]any)[1].(map[string]any)
	if contact["email"] != "fixed@example.com" {
		t.Fatalf("expected email to be written, got %#v", contact["email"])
	}
}

func TestFixStopsWhenDeclined(t *testing.T) {
	t.Parallel()

	engine, keys := contactsEngine()
	driver := &fakeDriver{confirms: []bool{false}}
	ok, err := Fix(context.Background(), driver, engine, keys, map[string]any{}, 5)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if ok {
		t.Fatalf("expected invalid form")
	}
	if len(driver.asked) != 0 {
		t.Fatalf("expected no prompts, got %v", driver.asked)
	}
	want := []string{"name: name required", "contacts[0].email: email required"}
	if diff := cmp.Diff(want, driver.infos); diff != "" {
		t.Fatalf("infos mismatch (-want +got):\n%s", diff)
	}
}

func TestFixSkipsUnwritableLeaves(t *testing.T) {
	t.Parallel()

	engine, keys := contactsEngine()
	root := map[string]any{"name": "Acme", "contacts": []any{}}
	driver := &fakeDriver{answers: map[string][]string{"contacts[0].email": {"x@y.ca"}}}

	ok, err := Fix(context.Background(), driver, engine, keys, root, 4)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if ok {
		t.Fatalf("expected the empty list to stay invalid")
	}
	if len(driver.asked) != 1 {
		t.Fatalf("expected the unwritable field to be asked once, got %v", driver.asked)
	}
}

func TestFixPropagatesDriverErrors(t *testing.T) {
	t.Parallel()

	engine, keys := contactsEngine()
	driver := &fakeDriver{err: ErrAborted}
	if _, err := Fix(context.Background(), driver, engine, keys, map[string]any{}, 1); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if _, err := Fix(context.Background(), nil, engine, keys, map[string]any{}, 1); err == nil {
		t.Fatalf("expected error for nil driver")
	}
}

func TestFixRejectsAnswersBeforeWriting(t *testing.T) {
	t.Parallel()

	engine, keys := contactsEngine()
	root := map[string]any{"name": "Acme", "contacts": []any{map[string]any{"email": "broken"}}}
	driver := &fakeDriver{answers: map[string][]string{"contacts[0].email": {"", "nope"}}}

	ok, err := Fix(context.Background(), driver, engine, keys, root, 1)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if ok {
		t.Fatalf("expected the form to stay invalid")
	}
	want := []string{
		"contacts[0].email=: email required",
		"contacts[0].email=nope: bad email",
	}
	if diff := cmp.Diff(want, driver.rejected); diff != "" {
		t.Fatalf("rejected answers mismatch (-want +got):\n%s", diff)
	}
	contact := root["contacts"].([]any)[0].(map[string]any)
	if contact["email"] != "broken" {
		t.Fatalf("expected the current value to be kept, got %#v", contact["email"])
	}
}
