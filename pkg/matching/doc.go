// Package matching expands duplicate-check results into form field
// annotations.
//
// A duplicate check reports records such as {field: "individual", match:
// "C-1042", fuzzy: false}. The Table expands the semantic field into every
// form field that represents it, so the whole identity is flagged together.
// Exact matches block submission; fuzzy matches only warn.
package matching
