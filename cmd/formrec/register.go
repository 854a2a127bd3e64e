package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/model"
)

var registerTable string

var registerCmd = &cobra.Command{
	Use:     "register",
	Short:   "Register an artisan",
	GroupID: "records",
	Long: `Register an artisan. Every field of the registration form has a flag;
required ones are marked. The record's name is derived from the first and
last name.`,
	Example: `  formrec register --first-name Ana --last-name Silva --email ana@example.com \
    --phone "+351 912345678" --business-name "Silva Pottery" --business-type Potter \
    --address "Rua 1" --city Porto --state Porto --zip-code 4000-001 --agree-to-terms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := artisanDraft(cmd)
		model.CompleteArtisan(draft)

		s, err := openSession(registerTable, model.ArtisanSchema, nil)
		if err != nil {
			return err
		}
		defer s.Close()
		return addDraft(cmd, s, draft)
	},
}

// flagName maps a field name to its flag spelling.
func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// artisanDraft collects the flags that were set into a draft.
func artisanDraft(cmd *cobra.Command) model.Draft {
	d := model.Draft{}
	for _, f := range model.ArtisanSchema.Fields {
		name := flagName(f.Name)
		if !cmd.Flags().Changed(name) {
			continue
		}
		switch f.Type {
		case model.FieldTypeBoolean:
			v, _ := cmd.Flags().GetBool(name)
			d.Set(f.Name, strconv.FormatBool(v))
		case model.FieldTypeEnums:
			v, _ := cmd.Flags().GetStringSlice(name)
			d.Set(f.Name, strings.Join(v, ", "))
		default:
			v, _ := cmd.Flags().GetString(name)
			d.Set(f.Name, v)
		}
	}
	return d
}

func init() {
	for _, f := range model.ArtisanSchema.Fields {
		if f.Name == model.FieldName {
			continue
		}
		usage := strings.ReplaceAll(f.Name, "_", " ")
		if len(f.Values) > 0 {
			usage += " (" + strings.Join(f.Values, ", ") + ")"
		}
		if f.Required {
			usage += " (required)"
		}
		switch f.Type {
		case model.FieldTypeBoolean:
			registerCmd.Flags().Bool(flagName(f.Name), false, usage)
		case model.FieldTypeEnums:
			registerCmd.Flags().StringSlice(flagName(f.Name), nil, usage)
		default:
			registerCmd.Flags().String(flagName(f.Name), "", usage)
		}
	}
	registerCmd.Flags().StringVar(&registerTable, "artisans-table", "Artisans", "table registrations are stored in")
}
