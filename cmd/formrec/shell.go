package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/cache"
	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

var shellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Interactive session over one table",
	GroupID: "views",
	Long: `Open an interactive session that keeps one record cache for its lifetime.

With --local nothing is sent to the remote store and the session starts with
three sample records. --people switches to the People table and schema.
Type "help" inside the shell for its commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		people, _ := cmd.Flags().GetBool("people")

		table, schema := cfg.Table, tableSchema()
		if people {
			table = "People"
			schema, _ = cfg.Schema(model.PersonSchema.Name)
		}
		var seed []*model.Record
		if localMode && !people {
			seed = sampleRecords(time.Now())
		}

		s, err := openSession(table, schema, seed)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if s.cache.Remote() {
			if err := s.cache.Refresh(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", ui.RenderError("Error:"), cache.Message(err))
			}
		}
		return runShell(ctx, s, table, os.Stdin, cmd.OutOrStdout())
	},
}

// sampleRecords is the content a local session starts with.
func sampleRecords(now time.Time) []*model.Record {
	rec := func(name, email, city, phone string) *model.Record {
		return &model.Record{
			Fields: map[string]string{
				model.FieldName:  name,
				model.FieldEmail: email,
				model.FieldCity:  city,
				model.FieldPhone: phone,
			},
			CreatedAt: now,
		}
	}
	return []*model.Record{
		rec("Ahmed Benali", "ahmed@example.com", "Casablanca", "+212 612345678"),
		rec("Fatima Alaoui", "fatima@example.com", "Rabat", "+212 623456789"),
		rec("Mohammed Idriss", "mohammed@example.com", "Marrakech", "+212 634567890"),
	}
}

const shellHelp = `Commands:
  add key=value...        add to the draft and submit it
  draft                   show the pending draft
  clear                   discard the pending draft
  edit <id> key=value...  change fields of a record (local only)
  rm <id>                 delete a record after confirmation
  ls                      list every record
  find <prefix>           list records whose name starts with prefix
  refresh                 reload from the remote store
  status                  show loading state and last outcome
  events                  show record events from this session
  export                  print a JSONL snapshot
  help                    show this help
  quit                    leave the shell`

// shell is one interactive session. The draft survives a failed add so the
// missing fields can be supplied with another add.
type shell struct {
	s     *session
	in    *bufio.Reader
	out   io.Writer
	draft model.Draft
}

// runShell reads commands from in until quit or EOF. Command errors are
// printed and the loop continues.
func runShell(ctx context.Context, s *session, table string, in io.Reader, out io.Writer) error {
	sh := &shell{s: s, in: bufio.NewReader(in), out: out, draft: model.Draft{}}

	mode := "local"
	if s.cache.Remote() {
		mode = "remote"
	}
	fmt.Fprintf(out, "%s %s (%s, %d records). Type %s for commands.\n",
		ui.RenderAccent("formrec shell"), table, mode, s.cache.Len(), ui.RenderCommand("help"))

	for {
		fmt.Fprintf(out, "%s ", ui.RenderAccent(strings.ToLower(table)+">"))
		line, err := sh.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		args, perr := splitArgs(line)
		if perr != nil {
			fmt.Fprintf(out, "%s %v\n", ui.RenderError("Error:"), perr)
			continue
		}
		if len(args) == 0 {
			continue
		}
		quit, cerr := sh.exec(ctx, args)
		if cerr != nil {
			fmt.Fprintf(out, "%s %s\n", ui.RenderError("Error:"), describeError(cerr))
		}
		if quit {
			return nil
		}
	}
}

// exec runs one command line. It reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, args []string) (bool, error) {
	c := sh.s.cache
	switch args[0] {
	case "quit", "exit", "q":
		return true, nil

	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)

	case "add":
		pairs, err := parseDraft(args[1:])
		if err != nil {
			return false, err
		}
		for k, v := range pairs {
			sh.draft[k] = v
		}
		rec, err := c.Add(ctx, sh.draft)
		if err != nil {
			return false, err
		}
		sh.draft.Reset()
		fmt.Fprintf(sh.out, "%s %s\n", ui.RenderSuccess(c.Status().LastSuccess), rec.ID)

	case "draft":
		if len(sh.draft) == 0 {
			fmt.Fprintln(sh.out, ui.RenderMuted("Draft is empty."))
			return false, nil
		}
		fmt.Fprintln(sh.out, recordSummary(sh.draft))

	case "clear":
		sh.draft.Reset()

	case "edit":
		if len(args) < 3 {
			return false, errors.New("usage: edit <id> key=value...")
		}
		rec, ok := c.Get(args[1])
		if !ok {
			return false, fmt.Errorf("%s: %w", args[1], cache.ErrNotFound)
		}
		pairs, err := parseDraft(args[2:])
		if err != nil {
			return false, err
		}
		draft := model.Draft{}
		for k, v := range rec.Fields {
			draft.Set(k, v)
		}
		for k, v := range pairs {
			draft[k] = v
		}
		updated, err := c.Update(ctx, rec.ID, draft)
		if err != nil {
			return false, err
		}
		printRecordDetail(sh.out, updated)

	case "rm":
		if len(args) != 2 {
			return false, errors.New("usage: rm <id>")
		}
		return false, deleteRecords(ctx, c, args[1:2], sh.in, sh.out)

	case "ls":
		records := c.Records()
		printRecordList(sh.out, records, c.Schema(), len(records))

	case "find":
		prefix := strings.Join(args[1:], " ")
		printRecordList(sh.out, c.FilterByNamePrefix(prefix), c.Schema(), c.Len())

	case "refresh":
		if err := c.Refresh(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(sh.out, ui.RenderSuccess(c.Status().LastSuccess))

	case "status":
		printStatus(sh.out, c.Status(), c.Len(), c.Remote())

	case "events":
		published := sh.s.log.Events()
		if len(published) == 0 {
			fmt.Fprintln(sh.out, ui.RenderMuted("No events yet."))
			return false, nil
		}
		for _, p := range published {
			fmt.Fprintf(sh.out, "%-26s %s\n", p.Topic, eventLine(p.Event))
		}

	case "export":
		return false, writeSnapshot(ctx, c, cfg, sh.out)

	default:
		return false, fmt.Errorf("unknown command %q (type help)", args[0])
	}
	return false, nil
}

// splitArgs splits a command line on whitespace. Single or double quotes
// group words, so name="Ahmed Benali" is one argument; a backslash inside
// double quotes escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
		esc   bool
	)
	for _, r := range line {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
		case quote != 0:
			switch {
			case r == quote:
				quote = 0
			case r == '\\' && quote == '"':
				esc = true
			default:
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 || esc {
		return nil, errors.New("unterminated quote")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func init() {
	shellCmd.Flags().Bool("people", false, "use the People table and schema")
}
