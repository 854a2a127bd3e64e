package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print record events as they are published",
	GroupID: "views",
	Long: `Subscribe to record events on NATS (FORMREC_NATS_URL) and print one line
per event until interrupted. --table limits output to one table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return errors.New("watch needs FORMREC_NATS_URL")
		}
		all, _ := cmd.Flags().GetBool("all")
		table := cfg.Table
		if all {
			table = ""
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats: disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		return watchEvents(ctx, sub, table, cmd.OutOrStdout())
	},
}

// watchEvents prints every record event for table (all tables when empty)
// until ctx is done or the subscription closes.
func watchEvents(ctx context.Context, sub events.Subscriber, table string, w io.Writer) error {
	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if table != "" && msg.Table != "" && msg.Table != table {
				continue
			}
			ev, err := msg.Decode()
			if err != nil {
				logger.Debug("skipping event", "topic", msg.Topic, "err", err)
				continue
			}
			if table != "" && events.TableOf(ev) != table {
				continue
			}
			if jsonOutput {
				printJSON(w, struct {
					Topic string `json:"topic"`
					Event any    `json:"event"`
				}{msg.Topic, ev})
				continue
			}
			fmt.Fprintln(w, formatEvent(time.Now(), ev))
		}
	}
}

// formatEvent renders a decoded event as one timestamped line.
func formatEvent(at time.Time, ev any) string {
	return ui.RenderMuted(at.Format("15:04:05")) + " " + eventLine(ev)
}

func eventLine(ev any) string {
	switch e := eventPointer(ev).(type) {
	case *events.RecordCreated:
		return fmt.Sprintf("%s %s %s %s", ui.RenderSuccess("created"), e.Table, e.Record.ID, recordSummary(e.Record.Fields))
	case *events.RecordUpdated:
		return fmt.Sprintf("%s %s %s %s", ui.RenderAccent("updated"), e.Table, e.Record.ID, recordSummary(e.Record.Fields))
	case *events.RecordDeleted:
		return fmt.Sprintf("%s %s %s", ui.RenderError("deleted"), e.Table, e.RecordID)
	case *events.RecordRefreshed:
		return fmt.Sprintf("%s %s (%d records)", ui.RenderMuted("refreshed"), e.Table, e.Count)
	}
	return fmt.Sprint(ev)
}

// eventPointer returns the pointer form of a record event, so events
// captured in-process print the same as ones decoded from NATS.
func eventPointer(ev any) any {
	switch e := ev.(type) {
	case events.RecordCreated:
		return &e
	case events.RecordUpdated:
		return &e
	case events.RecordDeleted:
		return &e
	case events.RecordRefreshed:
		return &e
	}
	return ev
}

// recordSummary lists a record's fields as key=value in sorted key order.
func recordSummary(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteIfSpace(fields[k]))
	}
	return strings.Join(parts, " ")
}

func quoteIfSpace(s string) string {
	if strings.ContainsAny(s, " \t") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func init() {
	watchCmd.Flags().Bool("all", false, "print events for every table")
}
