package model

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidateFields checks field values against a schema. Blank required
// fields are reported as "is required"; present fields are checked against
// their type. Unknown fields are rejected unless the schema allows extras.
// Returns a *ValidationError on failure, nil on success.
func ValidateFields(fields map[string]string, s Schema) error {
	var ve ValidationError

	for _, d := range s.Fields {
		val := strings.TrimSpace(fields[d.Name])
		if val == "" {
			if d.Required {
				ve.add(d.Name, "is required")
			}
			continue
		}
		if err := validateFieldValue(d, val); err != nil {
			ve.add(d.Name, err.Error())
		}
	}

	if !s.AllowExtra {
		var unknown []string
		for key := range fields {
			if _, ok := s.Field(key); !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			ve.add(key, "unknown field")
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func validateFieldValue(d FieldDef, val string) error {
	switch d.Type {
	case FieldTypeString, "":
	case FieldTypeEmail:
		if !emailPattern.MatchString(val) {
			return fmt.Errorf("is invalid")
		}
	case FieldTypeInteger:
		if _, err := strconv.Atoi(val); err != nil {
			return fmt.Errorf("must be an integer")
		}
	case FieldTypeBoolean:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("must be a boolean")
		}
		// A required boolean is a consent box: it must be checked.
		if d.Required && !b {
			return fmt.Errorf("must be accepted")
		}
	case FieldTypeDate:
		if _, err := time.Parse(time.DateOnly, val); err != nil {
			return fmt.Errorf("must be a YYYY-MM-DD date")
		}
	case FieldTypeEnum:
		if !contains(d.Values, val) {
			return fmt.Errorf("must be one of %v", d.Values)
		}
	case FieldTypeEnums:
		for _, elem := range SplitList(val) {
			if !contains(d.Values, elem) {
				return fmt.Errorf("element %q must be one of %v", elem, d.Values)
			}
		}
	default:
		return fmt.Errorf("unknown field type %q", d.Type)
	}
	return nil
}

// SplitList splits a comma-separated field value, dropping blank elements.
func SplitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
