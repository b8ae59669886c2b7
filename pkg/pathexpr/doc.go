// Package pathexpr parses and resolves the dotted path expressions used as
// validation keys.
//
// A key is a dot-separated list of segments. A segment is a property name, a
// numeric index, or the wildcard `*` which fans out over every element of the
// array at that position. A key may end with a single parenthesised condition
// that gates the rules registered under it:
//
//	businessInformation.businessName
//	location.addresses.*.postalCode(location.addresses.*.country.value == "CA")
//	location.contacts.*.locationNames.*.text
//
// Resolve mirrors array structure in its result, while Expand flattens the
// same walk into concrete leaves (`location.addresses[1].postalCode`) which is
// what the validation engine iterates.
package pathexpr
