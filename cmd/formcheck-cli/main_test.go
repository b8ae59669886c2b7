package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const businessStep = `
businessInformation:
  clientType: C
  businessType: R
  businessName: Northern Timber Ltd.
  registrationNumber: BC1234567
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunValidStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := writeFile(t, dir, "form.yaml", businessStep)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-data", data, "-step", "business"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstdout: %s\nstderr: %s", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "All fields are valid.") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestRunReportsFailuresAndMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := writeFile(t, dir, "form.json", `{"businessInformation": {"clientType": "C", "businessType": "R", "registrationNumber": "12"}}`)
	matches := writeFile(t, dir, "matches.json", `{"id": "m1", "matches": [{"field": "email", "match": "00012345", "fuzzy": true}]}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-data", data, "-step", "business", "-exhaustive", "-matches", matches}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d\nstderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"businessInformation.businessName: You must enter a business name",
		"businessInformation.registrationNumber: Registration numbers are",
		"businessInformation.email: Email address looks similar to client 00012345",
		"[submission] Some fields need your attention (2 error field(s))",
		"[match] Possible matching records found (1 warning field(s))",
		"Possible matching records found: 1 field(s) look similar",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunWithRuleDocumentsAndKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := writeFile(t, dir, "form.json", `{"orders": [{"qty": 2}, {"qty": -1}]}`)
	writeFile(t, dir, "rules/orders.yaml", "rules:\n  orders.*.qty:\n    - name: notNegative\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-data", data, "-rules", filepath.Join(dir, "rules"), "-keys", "orders.*.qty"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d\nstderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "orders[1].qty: This value cannot be negative") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestRunFlagErrors(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 without -data, got %d", code)
	}
	if code := run(context.Background(), []string{"-data", "x.json", "-openapi", "api.yaml"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for -openapi without -operation, got %d", code)
	}
	dir := t.TempDir()
	data := writeFile(t, dir, "form.json", `{}`)
	if code := run(context.Background(), []string{"-data", data, "-step", "payment"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for unknown step, got %d", code)
	}
}
