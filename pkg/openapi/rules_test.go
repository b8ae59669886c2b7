package openapi

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcheck/pkg/rules"
	"github.com/goliatone/go-formcheck/pkg/validation"
)

const clientsDocument = `
openapi: 3.0.3
info:
  title: Client intake
  version: 1.0.0
paths:
  /clients:
    post:
      operationId: createClient
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Client'
      responses:
        "201":
          description: created
  /clients/{id}/notes:
    put:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [text]
              properties:
                text:
                  type: string
      responses:
        "204":
          description: updated
components:
  schemas:
    Contact:
      type: object
      required: [email]
      properties:
        email:
          type: string
          format: email
        role:
          type: string
          enum: [billing, primary]
    Client:
      type: object
      required: [businessName, clientType]
      properties:
        businessName:
          type: string
          minLength: 2
          maxLength: 60
        clientType:
          type: string
          enum: [I, C]
        registrationNumber:
          type: string
          pattern: '^[A-Z]{2}[0-9]{4}$'
        employees:
          type: integer
          minimum: 0
          maximum: 1000
        contacts:
          type: array
          items:
            $ref: '#/components/schemas/Contact'
`

func registryFor(t *testing.T, operationID string) *rules.Registry {
	t.Helper()
	set, err := RuleSetFromDocument(context.Background(), []byte(clientsDocument), operationID)
	if err != nil {
		t.Fatalf("RuleSetFromDocument: %v", err)
	}
	return rules.NewRegistry().Apply(set)
}

func TestRuleSetFromDocumentKeys(t *testing.T) {
	t.Parallel()

	reg := registryFor(t, "createClient")
	want := []string{
		"businessName",
		"clientType",
		"contacts.*.email",
		"contacts.*.role",
		"employees",
		"registrationNumber",
	}
	if diff := cmp.Diff(want, reg.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := len(reg.Lookup("businessName")); got != 3 {
		t.Fatalf("expected required, minLength and maxLength, got %d validators", got)
	}
}

func TestRuleSetFromDocumentValidates(t *testing.T) {
	t.Parallel()

	engine := validation.New(registryFor(t, "createClient"))
	root := map[string]any{
		"businessName":       "A",
		"clientType":         "X",
		"registrationNumber": "AB1234",
		"employees":          -3,
		"contacts": []any{
			map[string]any{"email": "ok@example.com", "role": "billing"},
			map[string]any{"email": "nope"},
		},
	}

	keys := registryFor(t, "createClient").Keys()
	failures, ok := engine.Summarize(keys, root)
	if ok {
		t.Fatalf("expected invalid payload")
	}
	got := make([]string, 0, len(failures))
	for _, f := range failures {
		got = append(got, f.FieldID)
	}
	want := []string{"businessName", "clientType", "contacts[1].email", "employees"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}

	valid := map[string]any{
		"businessName": "Acme",
		"clientType":   "C",
		"employees":    12,
		"contacts":     []any{map[string]any{"email": "a@b.ca"}},
	}
	if results, ok := engine.Summarize(keys, valid); !ok {
		t.Fatalf("expected valid payload, got %v", results)
	}
}

func TestRuleSetFromDocumentMethodPathFallback(t *testing.T) {
	t.Parallel()

	reg := registryFor(t, "put:/clients/{id}/notes")
	if diff := cmp.Diff([]string{"text"}, reg.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	results := validation.New(reg).Check([]string{"text"}, map[string]any{})
	if len(results) != 1 || results[0].Valid() {
		t.Fatalf("expected required failure, got %+v", results)
	}
}

func TestRuleSetFromDocumentErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cases := []struct {
		name      string
		data      string
		operation string
		want      string
	}{
		{name: "empty payload", data: "", operation: "createClient", want: "payload is empty"},
		{name: "missing operation id", data: clientsDocument, operation: " ", want: "operation id is required"},
		{name: "unknown operation", data: clientsDocument, operation: "deleteClient", want: `operation "deleteClient" not found`},
		{name: "bad pattern", data: strings.Replace(clientsDocument, `'^[A-Z]{2}[0-9]{4}$'`, `'[a-'`, 1), operation: "createClient", want: "openapi rules:"},
		{name: "not openapi", data: "{", operation: "createClient", want: "openapi rules: load document"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := RuleSetFromDocument(ctx, []byte(tc.data), tc.operation)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := RuleSetFromDocument(cancelled, []byte(clientsDocument), "createClient"); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestReadDocument(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"api/clients.yaml": {Data: []byte(clientsDocument)}}
	doc, err := ReadDocument(context.Background(), fsys, "api/clients.yaml")
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if doc.Location() != "api/clients.yaml" {
		t.Fatalf("unexpected location %q", doc.Location())
	}

	set, err := RuleSetFromOperation(context.Background(), doc, "createClient")
	if err != nil {
		t.Fatalf("RuleSetFromOperation: %v", err)
	}
	if rules.NewRegistry().Apply(set).Len() == 0 {
		t.Fatalf("expected rules from document")
	}

	_, err = RuleSetFromOperation(context.Background(), doc, "missing")
	if err == nil || !strings.Contains(err.Error(), "api/clients.yaml") {
		t.Fatalf("expected error naming the document, got %v", err)
	}

	if _, err := ReadDocument(context.Background(), fsys, "missing.yaml"); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := ReadDocument(context.Background(), nil, "x"); err == nil {
		t.Fatalf("expected error for nil filesystem")
	}
}
