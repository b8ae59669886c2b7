// Package model defines the payloads that flow between the validation engine,
// the match mapper, and the notification bus. Field identifiers are concrete
// dotted paths with bracketed array indices (for example
// `location.contacts[1].email`), matching the ids produced by
// pathexpr.Bind. An empty ErrorMsg always means "this field is valid now" so
// subscribers can clear previously rendered errors without extra state.
package model
