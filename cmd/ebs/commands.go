package main

import (
	"context"
	"ebscript/pkg/builtins"
	"ebscript/pkg/lexer"
	"ebscript/pkg/object"
	"ebscript/pkg/token"
	"ebscript/pkg/version"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

// RunCmd runs a script, then drains its timers.
type RunCmd struct {
	File string        `arg:"" help:"Script to run" type:"existingfile"`
	Wait time.Duration `help:"Stop the timer loop after this long; zero waits until no timer runs" default:"0s"`
}

func (c *RunCmd) Run(ctx context.Context, s *session) error {
	src, err := readSource(c.File)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	in := s.interpreter(c.File)
	defer in.Close()

	if _, err := in.RunSource(ctx, src, c.File); err != nil {
		return err
	}

	if c.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Wait)
		defer cancel()
	}
	err = in.RunLoop(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.Debug("timer loop stopped", "reason", err, "timers", in.Scheduler().Count())
		return nil
	}
	return err
}

// EvalCmd evaluates a snippet and prints its value.
type EvalCmd struct {
	Code string `arg:"" help:"Code to evaluate"`
}

func (c *EvalCmd) Run(ctx context.Context, s *session) error {
	in := s.interpreter("eval")
	defer in.Close()

	result, err := in.RunSource(ctx, c.Code, "eval")
	if err != nil {
		return err
	}
	if result != nil && result != object.NULL {
		fmt.Fprintln(s.stdout, result.Inspect())
	}
	return nil
}

// TokensCmd prints one line per token.
type TokensCmd struct {
	File string `arg:"" help:"Script to tokenize" type:"existingfile"`
}

func (c *TokensCmd) Run(s *session) error {
	src, err := readSource(c.File)
	if err != nil {
		return err
	}
	l := lexer.New(src)
	for _, tok := range l.Tokens() {
		if tok.Type == token.EOF {
			break
		}
		fmt.Fprintf(s.stdout, "%4d:%-3d %-10s %q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
	}
	if errs := l.Errors(); len(errs) > 0 {
		diags := make([]error, len(errs))
		for i, e := range errs {
			diags[i] = e
		}
		return errors.Join(diags...)
	}
	return nil
}

// AstCmd prints the parsed program.
type AstCmd struct {
	File string `arg:"" help:"Script to parse" type:"existingfile"`
}

func (c *AstCmd) Run(s *session) error {
	src, err := readSource(c.File)
	if err != nil {
		return err
	}
	in := s.interpreter(c.File)
	defer in.Close()

	program, err := in.Parse(src, c.File)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.stdout, program.String())
	return nil
}

// InspectCmd summarizes a script without running it.
type InspectCmd struct {
	File string `arg:"" help:"Script to inspect" type:"existingfile"`
}

func (c *InspectCmd) Run(s *session) error {
	src, err := readSource(c.File)
	if err != nil {
		return err
	}
	in := s.interpreter(c.File)
	defer in.Close()

	program, err := in.Parse(src, c.File)
	if err != nil {
		return err
	}
	insights := analyzeProgram(program)
	printFunctionInsights(s.stdout, insights.Functions)
	printBuiltinInsights(s.stdout, insights.Builtins)
	return nil
}

// BuiltinsCmd lists registered builtins with their signatures.
type BuiltinsCmd struct {
	Query string `arg:"" help:"Fuzzy filter, e.g. 'tmrstrt'" optional:""`
}

func (c *BuiltinsCmd) Run(s *session) error {
	reg := builtins.Registry()
	names := reg.Names()
	if c.Query != "" {
		matches := fuzzy.Find(strings.ToLower(c.Query), names)
		if len(matches) == 0 {
			return fmt.Errorf("no builtin matches %q", c.Query)
		}
		names = names[:0:0]
		for _, m := range matches {
			names = append(names, m.Str)
		}
	} else {
		sort.Strings(names)
	}
	for _, name := range names {
		info, _ := reg.Lookup(name)
		fmt.Fprintln(s.stdout, info.String())
	}
	return nil
}

type VersionCmd struct{}

func (VersionCmd) Run(s *session) error {
	fmt.Fprintf(s.stdout, "%s %s\n", version.Name, version.Version)
	fmt.Fprintf(s.stdout, "Build Date: %s\n", version.BuildDate)
	fmt.Fprintf(s.stdout, "Git Commit: %s\n", version.GitCommit)
	return nil
}
