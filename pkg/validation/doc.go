// Package validation runs registered validator chains against form data.
//
// Keys are path expressions (see pathexpr). For each key the engine expands
// the path against the root object, evaluates the key's inline condition for
// every concrete leaf, and runs the chain registered under the original,
// unbound key:
//
//	reg := rules.NewRegistry()
//	reg.Register("a.list.*.x", rules.NotNegative(""))
//
//	engine := validation.New(reg, validation.WithBus(bus))
//	ok := engine.RunValidation([]string{"a.list.*.x"}, root, true)
//
// None of these abort the remaining keys: unknown keys pass with zero
// checks, malformed keys are skipped, and conditions that cannot be parsed
// or evaluated count as false so their rule does not apply. A validator that
// panics is not recovered.
package validation
