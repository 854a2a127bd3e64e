package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List records, optionally filtered by name prefix",
	GroupID: "records",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")

		schema := tableSchema()
		s, err := openSession(cfg.Table, schema, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if s.cache.Remote() {
			if err := s.cache.Refresh(context.Background()); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(os.Stderr, "local mode: nothing is stored between runs (use `formrec shell --local`)")
		}

		printRecordList(cmd.OutOrStdout(), s.cache.FilterByNamePrefix(prefix), schema, s.cache.Len())
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("prefix", "p", "", "only records whose name starts with this (case-insensitive)")
}
