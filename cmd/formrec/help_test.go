package main

import (
	"strings"
	"testing"

	"github.com/alfredjeanlab/formrec/internal/ui"
)

func TestColorizeHelpOutput(t *testing.T) {
	ui.SetColor(true)
	t.Cleanup(ui.ForceNoColor)

	in := "Records:\n" +
		"  add         Validate and add a record\n" +
		"\nFlags:\n" +
		"      --table string   table to operate on (overrides FORMREC_TABLE)\n" +
		"      --artisans-table string   (default \"Artisans\")\n"
	out := colorizeHelpOutput(in)

	for _, want := range []string{
		ui.RenderAccent("Records:"),
		ui.RenderAccent("Flags:"),
		"  " + ui.RenderCommand("add") + "  ",
		ui.RenderMuted("string"),
		ui.RenderMuted(`(default "Artisans")`),
		ui.RenderAccent("FORMREC_TABLE"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%q", want, out)
		}
	}
}

func TestColorizeHelpOutput_NoColor(t *testing.T) {
	ui.ForceNoColor()
	in := "Records:\n  add         Validate and add a record\n"
	if got := colorizeHelpOutput(in); got != in {
		t.Errorf("without color the text must be unchanged:\n%q", got)
	}
}
