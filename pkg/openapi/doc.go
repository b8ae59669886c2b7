// Package openapi derives validation rules from the request body schema of an
// OpenAPI 3 operation. kin-openapi types stay inside this package; callers
// only see rules.RuleSet.
package openapi
