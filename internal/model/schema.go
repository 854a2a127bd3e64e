package model

import "strings"

// FieldType identifies how a field's string value is interpreted.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeEmail   FieldType = "email"
	FieldTypeInteger FieldType = "integer"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeEnum    FieldType = "enum"
	FieldTypeEnums   FieldType = "enum[]" // comma-separated
)

// FieldDef describes a single field of a table.
type FieldDef struct {
	Name     string    `json:"name" toml:"name"`
	Type     FieldType `json:"type" toml:"type"`
	Required bool      `json:"required,omitempty" toml:"required"`
	Values   []string  `json:"values,omitempty" toml:"values"` // allowed values for enum / enum[]
}

// Schema is the set of fields a table accepts.
type Schema struct {
	Name   string     `json:"name" toml:"name"`
	Fields []FieldDef `json:"fields" toml:"fields"`
	// AllowExtra accepts fields that have no definition.
	AllowExtra bool `json:"allow_extra,omitempty" toml:"allow_extra"`
}

// Required returns the names of the schema's required fields in order.
func (s Schema) Required() []string {
	var out []string
	for _, d := range s.Fields {
		if d.Required {
			out = append(out, d.Name)
		}
	}
	return out
}

// Field returns the definition for name, if any.
func (s Schema) Field(name string) (FieldDef, bool) {
	for _, d := range s.Fields {
		if d.Name == name {
			return d, true
		}
	}
	return FieldDef{}, false
}

// ObjectSchema is the generic "object" table: name, email and city are
// required, phone is optional, and arbitrary extra fields are accepted.
var ObjectSchema = Schema{
	Name: "objects",
	Fields: []FieldDef{
		{Name: FieldName, Type: FieldTypeString, Required: true},
		{Name: FieldEmail, Type: FieldTypeString, Required: true},
		{Name: FieldCity, Type: FieldTypeString, Required: true},
		{Name: FieldPhone, Type: FieldTypeString},
	},
	AllowExtra: true,
}

// PersonSchema is the people table.
var PersonSchema = Schema{
	Name: "people",
	Fields: []FieldDef{
		{Name: FieldName, Type: FieldTypeString, Required: true},
		{Name: FieldAge, Type: FieldTypeString, Required: true},
		{Name: FieldNote, Type: FieldTypeString},
	},
}

// SchemaFor returns the built-in schema with the given name, ignoring case.
func SchemaFor(name string) (Schema, bool) {
	switch strings.ToLower(name) {
	case ObjectSchema.Name, "":
		return ObjectSchema, true
	case PersonSchema.Name:
		return PersonSchema, true
	case ArtisanSchema.Name:
		return ArtisanSchema, true
	}
	return Schema{}, false
}
