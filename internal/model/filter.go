package model

import "strings"

// FilterByNamePrefix returns the records whose name starts with query,
// compared case-insensitively, preserving input order. A blank query
// matches every record. The input slice is not modified.
func FilterByNamePrefix(records []*Record, query string) []*Record {
	blank := strings.TrimSpace(query) == ""
	q := strings.ToLower(query)
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if blank || strings.HasPrefix(strings.ToLower(r.Name()), q) {
			out = append(out, r)
		}
	}
	return out
}
