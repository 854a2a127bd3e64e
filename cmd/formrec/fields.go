package main

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// splitField splits "key=value" into (key, value, true).
// Returns ("", "", false) if there is no '=' or key is empty.
func splitField(s string) (string, string, bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// parseDraft converts key=value pairs into a draft. Later pairs override
// earlier ones for the same key.
func parseDraft(pairs []string) (model.Draft, error) {
	d := model.Draft{}
	for _, p := range pairs {
		k, v, ok := splitField(p)
		if !ok {
			return nil, fmt.Errorf("invalid field %q: expected key=value", p)
		}
		d.Set(k, v)
	}
	return d, nil
}

// describeError renders err for the terminal, listing each failing field of
// a validation error on its own line.
func describeError(err error) string {
	ve, ok := asValidationError(err)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString("please fix the following fields:")
	for _, fe := range ve.Errors {
		fmt.Fprintf(&b, "\n  %s: %s", fe.Field, fe.Message)
	}
	return b.String()
}
