package main

import (
	"fmt"
	"io"

	"github.com/wisplang/wisp/internal/history"
	"github.com/wisplang/wisp/internal/werr"
)

// FormatError prints err for a terminal: *werr.Error already carries its
// own "[line N] Error...: message" rendering (spec §6.3), so this only
// adds the color and, for a wrapped cause, a "caused by" line; any other
// error type falls back to a generic one-liner with an "Error: " label.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	if werrErr, ok := err.(*werr.Error); ok {
		formatWispError(w, werrErr, useColor)
		return
	}
	fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
}

func formatWispError(w io.Writer, e *werr.Error, useColor bool) {
	fmt.Fprintf(w, "%s\n", Colorize(e.Error(), ColorRed, useColor))
	if e.Cause != nil {
		fmt.Fprintf(w, "%s%v\n", Colorize("  caused by: ", ColorGray, useColor), e.Cause)
	}
}

// DisplayHistory renders history records as a simple table, most recent
// first.
func DisplayHistory(w io.Writer, records []history.Record, useColor bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, Colorize("no run history yet", ColorGray, useColor))
		return
	}
	for _, r := range records {
		status := Colorize("ok", ColorGray, useColor)
		if r.Errors > 0 {
			status = Colorize("error", ColorRed, useColor)
		}
		fmt.Fprintf(w, "%s  %-8s  %-30s  %d lines  %s\n",
			r.At.Format("2006-01-02 15:04:05"), status, r.Path, r.Lines, r.Hash[:12])
	}
}
