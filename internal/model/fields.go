package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// CanonicalFields re-keys fields by canonical name. When several spellings
// collide, a non-empty value under the capitalized column spelling ("Name")
// wins; otherwise the first non-empty spelling in sorted key order does.
func CanonicalFields(fields map[string]string) map[string]string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(fields))
	rank := make(map[string]int, len(fields))
	for _, k := range keys {
		c := CanonicalField(k)
		r := spellingRank(k, c, fields[k])
		if prev, ok := rank[c]; ok && prev <= r {
			continue
		}
		out[c] = fields[k]
		rank[c] = r
	}
	return out
}

// spellingRank orders the spellings of one canonical field, lowest first.
func spellingRank(key, canonical, value string) int {
	switch {
	case value == "":
		return 2
	case canonical != "" && strings.TrimSpace(key) == strings.ToUpper(canonical[:1])+canonical[1:]:
		return 0
	default:
		return 1
	}
}

// FieldText renders a JSON field value as a string. Strings are unquoted,
// string lists are joined with ", ", null is dropped, and anything else is
// kept as its JSON text.
func FieldText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", "), true
	}
	return string(raw), true
}
