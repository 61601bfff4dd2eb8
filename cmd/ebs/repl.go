package main

import (
	"context"
	"ebscript/pkg/builtins"
	"ebscript/pkg/eval"
	"ebscript/pkg/lexer"
	"ebscript/pkg/object"
	"ebscript/pkg/token"
	"ebscript/pkg/version"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

const (
	PROMPT      = ">>> "
	CONTINUE    = "... "
	historyFile = ".ebs_history"
)

// ReplCmd reads statements interactively. Definitions persist between
// inputs, and queued timer callbacks run after each one.
type ReplCmd struct {
	History string `help:"History file; empty disables history" placeholder:"FILE" default:"${history}"`
}

func (c *ReplCmd) Run(ctx context.Context, s *session) error {
	in := s.interpreter("repl")
	defer in.Close()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(builtins.Registry().Names()))

	if c.History != "" {
		if f, err := os.Open(c.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(c.History); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	fmt.Fprintf(s.stdout, "%s %s\n", version.Name, version.Version)
	fmt.Fprintln(s.stdout, "Type statements and press Enter. :quit exits.")

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(s.stdout)
			return nil
		}
		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		evalInput(ctx, in, s, code)
		in.Pump()
	}
}

func evalInput(ctx context.Context, in *eval.Interpreter, s *session, code string) {
	result, err := in.RunSource(ctx, code, "repl")
	if err != nil {
		renderError(s.stderr, err)
		return
	}
	if result != nil && result != object.NULL {
		fmt.Fprintln(s.stdout, result.Inspect())
	}
}

// readInput keeps prompting while braces or parentheses are left open.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !unbalanced(b.String()) {
			return b.String(), true
		}
	}
}

func unbalanced(src string) bool {
	depth := 0
	for _, tok := range lexer.New(src).Tokens() {
		switch tok.Type {
		case token.LBRACE, token.LPAREN, token.LBRACKET:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACKET:
			depth--
		}
	}
	return depth > 0
}

// completer offers builtin names for the word under the cursor.
func completer(names []string) liner.Completer {
	return func(line string) []string {
		start := strings.LastIndexAny(line, " \t(#,=") + 1
		word := strings.ToLower(line[start:])
		if word == "" {
			return nil
		}
		var out []string
		for _, n := range names {
			if strings.HasPrefix(n, word) {
				out = append(out, line[:start]+n)
			}
		}
		return out
	}
}

func defaultHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}
