package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/cache"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

// errNoConfirmation is returned when deletion needs an answer nobody can give.
var errNoConfirmation = errors.New("refusing to delete without confirmation: run on a terminal or pass --yes")

var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Short:   "Delete one or more records",
	GroupID: "records",
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !ui.IsInteractive() {
			return errNoConfirmation
		}

		s, err := openSession(cfg.Table, tableSchema(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		var in io.Reader = os.Stdin
		if yes {
			in = nil
		}
		return deleteRecords(context.Background(), s.cache, args, in, cmd.OutOrStdout())
	},
}

// deleteRecords removes each id in turn. With a nil in every id is
// confirmed up front; otherwise the user is asked per id and a "no" skips it.
// A cache without a remote store reports ids it does not hold as not found.
func deleteRecords(ctx context.Context, c *cache.Cache, ids []string, in io.Reader, out io.Writer) error {
	if in != nil {
		in = bufio.NewReader(in)
	}
	for _, id := range ids {
		if _, ok := c.Get(id); !ok && !c.Remote() {
			fmt.Fprintf(out, "Not found %s\n", id)
			continue
		}
		if in != nil {
			ok, err := ui.Confirm(in, out, fmt.Sprintf("Delete %s?", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "Skipped %s\n", id)
				continue
			}
		}
		if err := c.Remove(ctx, id, c.Confirm(id)); err != nil {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
		fmt.Fprintf(out, "Deleted %s\n", id)
	}
	return nil
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "confirm deletion without prompting")
}
