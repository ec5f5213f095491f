package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/wisplang/wisp/internal/history"
	"github.com/wisplang/wisp/internal/interp"
	"github.com/wisplang/wisp/internal/lexer"
	"github.com/wisplang/wisp/internal/parser"
	"github.com/wisplang/wisp/internal/werr"
)

func main() {
	var (
		debug    bool
		noColor  bool
		watch    bool
		historyN int
	)

	rootCmd := &cobra.Command{
		Use:           "wisp [file]",
		Short:         "Run wisp scripts, or start a REPL with no file",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runREPL(os.Stdin, os.Stdout, debug)
			}
			return runFile(args[0], debug, noColor, watch)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug tracing (also settable per-stage via WISP_DEBUG_LEXER/PARSER/INTERP)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a wisp script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], debug, noColor, watch)
		},
	}
	runCmd.Flags().BoolVar(&watch, "watch", false, "re-run the file whenever it changes on disk")
	rootCmd.AddCommand(runCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(os.Stdout, historyN, !noColor)
		},
	}
	historyCmd.Flags().IntVarP(&historyN, "number", "n", 10, "number of records to show")
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		FormatError(os.Stderr, err, ShouldUseColor(noColor))
		os.Exit(1)
	}
}

func setDebugEnv(debug bool) {
	if !debug {
		return
	}
	for _, name := range []string{"WISP_DEBUG_LEXER", "WISP_DEBUG_PARSER", "WISP_DEBUG_INTERP"} {
		if os.Getenv(name) == "" {
			os.Setenv(name, "1")
		}
	}
}

// runFile reads, lexes, parses, and interprets path once, recording the
// outcome to the run-history cache. With watch, it keeps doing so every
// time the file changes on disk until interrupted.
func runFile(path string, debug, noColor, watch bool) error {
	setDebugEnv(debug)

	store, err := openHistoryStore()
	if err != nil {
		return werr.Wrap("opening history store", err)
	}

	useColor := ShouldUseColor(noColor)
	if !watch {
		return runOnce(path, store, useColor)
	}
	return runWatch(path, store, useColor)
}

func runOnce(path string, store *history.Store, useColor bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return werr.Wrap(fmt.Sprintf("reading %s", path), err)
	}
	source = stripShebang(source)

	runErr := interpret(source, os.Stdout)
	if runErr != nil {
		FormatError(os.Stderr, runErr, useColor)
	}

	if store != nil {
		_ = store.Append(history.Record{
			Hash:   history.Hash(source),
			Path:   path,
			Lines:  lineCount(source),
			Errors: boolToInt(runErr != nil),
			At:     time.Now(),
		})
	}

	if runErr != nil {
		return fmt.Errorf("run failed")
	}
	return nil
}

// runWatch re-reads and re-runs path on every fsnotify event that touches
// it, skipping re-runs whose content hash matches the last one (so a
// save-without-change, or an editor's atomic-rename dance, doesn't spam
// duplicate runs).
func runWatch(path string, store *history.Store, useColor bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return werr.Wrap("starting file watcher", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return werr.Wrap(fmt.Sprintf("watching %s", dir), err)
	}

	ctx, cancel := newCancellableContext()
	defer cancel()

	var lastHash string
	runIfChanged := func() {
		source, err := os.ReadFile(path)
		if err != nil {
			return
		}
		source = stripShebang(source)
		hash := history.Hash(source)
		if hash == lastHash {
			return
		}
		lastHash = hash
		_ = runOnce(path, store, useColor)
	}

	runIfChanged()
	fmt.Fprintf(os.Stderr, "%s\n", Colorize("watching for changes, press Ctrl+C to stop", ColorGray, useColor))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				runIfChanged()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", watchErr)
		}
	}
}

// runREPL is a persistent-state read-evaluate-print loop: one Interpreter
// lives for the whole session, so a variable or function defined on one
// line is visible on the next (spec §10).
func runREPL(in io.Reader, out io.Writer, debug bool) error {
	setDebugEnv(debug)
	interpreter := interp.NewREPL(out)
	reader := bufio.NewReader(in)

	for {
		fmt.Fprint(out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return werr.Wrap("reading REPL input", err)
		}

		toks, lexErrs := lexer.New(line).ScanTokens()
		if len(lexErrs) > 0 {
			for _, e := range lexErrs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			continue
		}
		stmts, parseErrs := parser.New(toks).Parse()
		if len(parseErrs) > 0 {
			for _, e := range parseErrs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			continue
		}
		if err := interpreter.Run(stmts); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}
}

func interpret(source []byte, out io.Writer) error {
	toks, lexErrs := lexer.New(string(source)).ScanTokens()
	if len(lexErrs) > 0 {
		return lexErrs[0]
	}
	stmts, parseErrs := parser.New(toks).Parse()
	if len(parseErrs) > 0 {
		return parseErrs[0]
	}
	return interp.New(out).Run(stmts)
}

func showHistory(out io.Writer, n int, useColor bool) error {
	store, err := openHistoryStore()
	if err != nil {
		return werr.Wrap("opening history store", err)
	}
	records, err := store.Last(n)
	if err != nil {
		return werr.Wrap("reading history", err)
	}
	DisplayHistory(out, records, useColor)
	return nil
}

func openHistoryStore() (*history.Store, error) {
	path, err := history.DefaultPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// newCancellableContext cancels on SIGINT/SIGTERM so watch mode stops
// cleanly on Ctrl+C.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

// stripShebang drops a leading `#!...` line so a wisp script can be run
// directly as an executable (e.g. `#!/usr/bin/env wisp`); the scanner has
// no comment syntax starting with `#`, so this must happen before lexing.
func stripShebang(source []byte) []byte {
	if len(source) < 2 || source[0] != '#' || source[1] != '!' {
		return source
	}
	for i := 2; i < len(source); i++ {
		if source[i] == '\n' {
			return source[i+1:]
		}
	}
	return []byte{}
}

func lineCount(source []byte) int {
	count := 1
	for _, b := range source {
		if b == '\n' {
			count++
		}
	}
	return count
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
