package events

import "strings"

// MatchTopic reports whether topic matches a NATS-style subject pattern:
// "*" matches one dot-separated token and a trailing ">" matches one or
// more tokens.
func MatchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pat := strings.Split(pattern, ".")
	tok := strings.Split(topic, ".")
	for i, p := range pat {
		switch {
		case p == ">" && i == len(pat)-1:
			return len(tok) > i
		case i >= len(tok):
			return false
		case p != "*" && p != tok[i]:
			return false
		}
	}
	return len(pat) == len(tok)
}

// TableOf returns the table a record event belongs to, or "" for anything
// else. Both event values and the pointers Decode returns are accepted.
func TableOf(event any) string {
	switch e := event.(type) {
	case RecordCreated:
		return e.Table
	case *RecordCreated:
		return e.Table
	case RecordUpdated:
		return e.Table
	case *RecordUpdated:
		return e.Table
	case RecordDeleted:
		return e.Table
	case *RecordDeleted:
		return e.Table
	case RecordRefreshed:
		return e.Table
	case *RecordRefreshed:
		return e.Table
	}
	return ""
}
