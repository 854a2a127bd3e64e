package events

import "testing"

func TestMatchTopic(t *testing.T) {
	for _, tc := range []struct {
		pattern, topic string
		want           bool
	}{
		{TopicRecordCreated, TopicRecordCreated, true},
		{TopicRecordCreated, TopicRecordDeleted, false},
		{"formrec.record.*", TopicRecordCreated, true},
		{"formrec.record.*", TopicRecordRefreshed, true},
		{"formrec.record.*", "formrec.stream.gap", false},
		{TopicAll, TopicRecordCreated, true},
		{TopicAll, "formrec.stream.gap", true},
		{TopicAll, "formrec", false},
		{TopicAll, "other.topic", false},
		{"*.*.*", TopicRecordCreated, true},
		{"*.*.*", "formrec.record", false},
		{"formrec.>.created", TopicRecordCreated, false},
	} {
		if got := MatchTopic(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("MatchTopic(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

func TestTableOf(t *testing.T) {
	for _, tc := range []struct {
		event any
		want  string
	}{
		{RecordCreated{Table: "A"}, "A"},
		{&RecordCreated{Table: "A"}, "A"},
		{RecordUpdated{Table: "B"}, "B"},
		{&RecordUpdated{Table: "B"}, "B"},
		{RecordDeleted{Table: "C"}, "C"},
		{&RecordDeleted{Table: "C"}, "C"},
		{RecordRefreshed{Table: "D"}, "D"},
		{&RecordRefreshed{Table: "D"}, "D"},
		{map[string]string{"table": "E"}, ""},
		{nil, ""},
	} {
		if got := TableOf(tc.event); got != tc.want {
			t.Errorf("TableOf(%T) = %q, want %q", tc.event, got, tc.want)
		}
	}
}
