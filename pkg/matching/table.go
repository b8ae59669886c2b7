package matching

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// IndexPlaceholder marks an array position inside table keys and targets.
const IndexPlaceholder = "[n]"

var concreteIndex = regexp.MustCompile(`\[(\d+)\]`)

// Entry expands one semantic match field into the form fields that
// represent it.
type Entry struct {
	// Label names the field in messages.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Targets lists the field ids to annotate. Empty means the match field
	// itself.
	Targets []string `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Table maps match field names to entries. Keys may use IndexPlaceholder to
// match any concrete index, e.g. "location.contacts[n].email".
type Table map[string]Entry

type tableDocument struct {
	Fields Table `json:"fields" yaml:"fields"`
}

// LoadTable reads a JSON or YAML table document of the form
// {"fields": {name: {label, targets}}} from fsys.
func LoadTable(fsys fs.FS, path string) (Table, error) {
	if fsys == nil {
		return nil, fmt.Errorf("matching: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("matching: read %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("matching: file %s is empty", path)
	}

	var doc tableDocument
	if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
		doc = tableDocument{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("matching: parse %s: %w", path, yamlErr)
		}
	}
	for key, entry := range doc.Fields {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("matching: file %s defines an empty field", path)
		}
		for _, target := range entry.Targets {
			if strings.TrimSpace(target) == "" {
				return nil, fmt.Errorf("matching: file %s field %q has an empty target", path, key)
			}
		}
	}
	if doc.Fields == nil {
		doc.Fields = Table{}
	}
	return doc.Fields, nil
}

// Expand returns the entry for field and its concrete target ids. Exact keys
// win over placeholder keys. Indices captured from field replace the
// placeholders of each target from left to right; placeholders without a
// captured index stay as "[n]".
func (t Table) Expand(field string) (Entry, []string, bool) {
	entry, ok := t[field]
	if ok {
		return entry, targetsOrSelf(entry, field, nil), true
	}

	indices := captureIndices(field)
	if len(indices) == 0 {
		return Entry{}, nil, false
	}
	pattern := concreteIndex.ReplaceAllString(field, IndexPlaceholder)
	entry, ok = t[pattern]
	if !ok {
		return Entry{}, nil, false
	}
	return entry, targetsOrSelf(entry, field, indices), true
}

func targetsOrSelf(entry Entry, field string, indices []int) []string {
	if len(entry.Targets) == 0 {
		return []string{field}
	}
	out := make([]string, 0, len(entry.Targets))
	for _, target := range entry.Targets {
		out = append(out, fillIndices(target, indices))
	}
	return out
}

func captureIndices(field string) []int {
	matches := concreteIndex.FindAllStringSubmatch(field, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

func fillIndices(target string, indices []int) string {
	if !strings.Contains(target, IndexPlaceholder) {
		return target
	}
	var b strings.Builder
	rest := target
	for _, idx := range indices {
		pos := strings.Index(rest, IndexPlaceholder)
		if pos < 0 {
			break
		}
		b.WriteString(rest[:pos])
		b.WriteString("[" + strconv.Itoa(idx) + "]")
		rest = rest[pos+len(IndexPlaceholder):]
	}
	b.WriteString(rest)
	return b.String()
}
