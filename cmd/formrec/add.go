package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add",
	Short:   "Validate and add a record",
	GroupID: "records",
	Example: `  formrec add --name "Ahmed Benali" --email ahmed@example.com --city Casablanca
  formrec add --name Ada --email ada@example.com --city London -f Role=Engineer`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("field")
		draft, err := parseDraft(pairs)
		if err != nil {
			return err
		}
		for _, name := range []string{model.FieldName, model.FieldEmail, model.FieldCity, model.FieldPhone} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetString(name)
				draft.Set(name, v)
			}
		}

		s, err := openSession(cfg.Table, tableSchema(), nil)
		if err != nil {
			return err
		}
		defer s.Close()
		return addDraft(cmd, s, draft)
	},
}

// addDraft adds draft through the session's cache and prints the result.
func addDraft(cmd *cobra.Command, s *session, draft model.Draft) error {
	rec, err := s.cache.Add(context.Background(), draft)
	if err != nil {
		if _, ok := asValidationError(err); ok {
			return errors.New(describeError(err))
		}
		return err
	}
	draft.Reset()

	out := cmd.OutOrStdout()
	if !jsonOutput {
		fmt.Fprintln(out, ui.RenderSuccess(s.cache.Status().LastSuccess))
	}
	printRecordDetail(out, rec)
	return nil
}

func init() {
	addCmd.Flags().String(model.FieldName, "", "name (required)")
	addCmd.Flags().String(model.FieldEmail, "", "email (required)")
	addCmd.Flags().String(model.FieldCity, "", "city (required)")
	addCmd.Flags().String(model.FieldPhone, "", "phone")
	addCmd.Flags().StringArrayP("field", "f", nil, "extra field as key=value (repeatable)")
}
