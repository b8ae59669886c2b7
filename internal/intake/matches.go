package intake

import (
	"embed"

	"github.com/goliatone/go-formcheck/pkg/matching"
)

//go:embed matches.yaml
var matchFiles embed.FS

// MatchTable expands duplicate-check fields into intake form fields.
func MatchTable() matching.Table {
	table, err := matching.LoadTable(matchFiles, "matches.yaml")
	if err != nil {
		panic(err)
	}
	return table
}
