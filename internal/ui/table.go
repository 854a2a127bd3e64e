package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// maxCellWidth truncates long field values in tables.
const maxCellWidth = 40

// Columns returns the columns a record table shows for schema: its defined
// fields in order, then any extra field present on the records, sorted.
func Columns(schema model.Schema, records []*model.Record) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, d := range schema.Fields {
		cols = append(cols, d.Name)
		seen[d.Name] = true
	}
	var extra []string
	for _, r := range records {
		for _, name := range r.FieldNames() {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// PrintRecordTable writes records as an aligned table with an ID column
// followed by cols.
func PrintRecordTable(w io.Writer, records []*model.Record, cols []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(cols)+1)
	header = append(header, "ID")
	for _, c := range cols {
		header = append(header, strings.ToUpper(c))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range records {
		row := make([]string, 0, len(cols)+1)
		row = append(row, r.ID)
		for _, c := range cols {
			row = append(row, truncate(r.Field(c), maxCellWidth))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// PrintRecord writes one record as aligned "Field: value" lines.
func PrintRecord(w io.Writer, r *model.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	for _, name := range r.FieldNames() {
		fmt.Fprintf(tw, "%s:\t%s\n", title(name), r.Fields[name])
	}
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Created:\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
