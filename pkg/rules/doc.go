// Package rules holds the validator registry and the built-in rule library.
//
// Rules are keyed by path expressions (see package pathexpr) and composed at
// start-up from rule sets:
//
//	reg := rules.NewRegistry().Apply(intake.RuleSet(), fromDocuments)
//
// Rule sets may also be loaded from JSON or YAML documents:
//
//	rules:
//	  "location.contacts.*.email":
//	    - name: required
//	    - name: email
//	    - name: maxLength
//	      params: {max: 100}
package rules
