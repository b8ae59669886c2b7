package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcheck/pkg/model"
	"github.com/goliatone/go-formcheck/pkg/notify"
)

// MustLoadSnapshot reads a JSON or YAML form snapshot fixture.
func MustLoadSnapshot(t *testing.T, path string) map[string]any {
	t.Helper()

	root, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return root
}

// LoadSnapshot returns a form snapshot without requiring testing.T, so
// fixtures can be loaded in setup helpers.
func LoadSnapshot(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("testsupport: snapshot path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read snapshot: %w", err)
	}
	root := make(map[string]any)
	if err := json.Unmarshal(data, &root); err == nil {
		return root, nil
	}
	root = make(map[string]any)
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("testsupport: parse snapshot: %w", err)
	}
	return root, nil
}

// MustLoadMatchResponse reads a JSON duplicate-check response fixture.
func MustLoadMatchResponse(t *testing.T, path string) model.MatchResponse {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load match response: %v", err)
	}
	var resp model.MatchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal match response: %v", err)
	}
	return resp
}

// Recorder captures everything published on the field, batch and modal
// topics of a bus, in delivery order.
type Recorder struct {
	Fields  []model.FieldNotification
	Batches []model.BatchNotification
	Modals  []model.ModalRequest
	Order   []string
}

// Record subscribes a new Recorder to bus.
func Record(bus *notify.Bus) *Recorder {
	r := &Recorder{}
	notify.Subscribe(bus, notify.FieldNotifications, func(n model.FieldNotification) {
		r.Fields = append(r.Fields, n)
		r.Order = append(r.Order, notify.FieldNotifications.Name()+":"+n.FieldID)
	})
	notify.Subscribe(bus, notify.BatchNotifications, func(b model.BatchNotification) {
		r.Batches = append(r.Batches, b)
		r.Order = append(r.Order, fmt.Sprintf("%s:%s:warning=%t", notify.BatchNotifications.Name(), b.Source, b.Warning))
	})
	notify.Subscribe(bus, notify.ModalRequests, func(m model.ModalRequest) {
		r.Modals = append(r.Modals, m)
		r.Order = append(r.Order, notify.ModalRequests.Name()+":"+m.Kind)
	})
	return r
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}
