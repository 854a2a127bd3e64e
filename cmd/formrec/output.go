package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alfredjeanlab/formrec/internal/cache"
	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

func printRecordList(w io.Writer, records []*model.Record, schema model.Schema, total int) {
	if jsonOutput {
		if records == nil {
			records = []*model.Record{}
		}
		printJSON(w, records)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No records."))
		return
	}
	ui.PrintRecordTable(w, records, ui.Columns(schema, records))
	fmt.Fprintf(w, "\n%d records (%d total)\n", len(records), total)
}

func printRecordDetail(w io.Writer, r *model.Record) {
	if jsonOutput {
		printJSON(w, r)
		return
	}
	ui.PrintRecord(w, r)
}

func printStatus(w io.Writer, st cache.Status, n int, remote bool) {
	if jsonOutput {
		printJSON(w, struct {
			cache.Status
			Records int  `json:"records"`
			Remote  bool `json:"remote"`
		}{st, n, remote})
		return
	}
	mode := "local"
	if remote {
		mode = "remote"
	}
	fmt.Fprintf(w, "Mode:     %s\n", mode)
	fmt.Fprintf(w, "Records:  %d\n", n)
	fmt.Fprintf(w, "Loading:  %t\n", st.Loading)
	if st.LastSuccess != "" {
		fmt.Fprintf(w, "Last:     %s\n", ui.RenderSuccess(st.LastSuccess))
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "Error:    %s\n", ui.RenderError(st.LastError))
	}
}

func asValidationError(err error) (*model.ValidationError, bool) {
	var ve *model.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
