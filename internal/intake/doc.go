// Package intake holds the client intake wizard rules: business
// information, location addresses and contacts, plus the table that maps
// duplicate-check fields onto the wizard's inputs.
package intake
