package main

import (
	"context"
	"ebscript/pkg/builtins"
	"ebscript/pkg/config"
	"ebscript/pkg/eval"
	"ebscript/pkg/log"
	"ebscript/pkg/timer"
	"ebscript/pkg/version"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
)

// CLI is the top-level command line of ebs.
type CLI struct {
	Config    string `help:"YAML configuration file" placeholder:"FILE" type:"path"`
	EnvFile   string `help:".env file loaded before the process environment" name:"env-file" placeholder:"FILE" type:"path"`
	LogLevel  string `help:"Log level: debug, info, warn or error" name:"log-level" placeholder:"LEVEL"`
	LogFormat string `help:"Log format: text, json or pretty" name:"log-format" placeholder:"FORMAT"`
	Profile   string `help:"Write a profile of the given kind (${profiles})" placeholder:"KIND"`

	Run      RunCmd      `cmd:"" help:"Run a script and its timers"`
	Eval     EvalCmd     `cmd:"" help:"Evaluate code and print the result"`
	Repl     ReplCmd     `cmd:"" help:"Start an interactive session"`
	Tokens   TokensCmd   `cmd:"" help:"Print the token stream of a script"`
	Ast      AstCmd      `cmd:"" help:"Print the syntax tree of a script"`
	Inspect  InspectCmd  `cmd:"" help:"Summarize the functions and builtin calls of a script"`
	Builtins BuiltinsCmd `cmd:"" help:"List builtins, fuzzy-filtered by an optional query"`
	Version  VersionCmd  `cmd:"" help:"Print build metadata"`
}

var profiles = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"trace":     profile.TraceProfile,
}

// session carries what every command needs once flags and configuration
// are resolved.
type session struct {
	cfg    config.Config
	logger log.Logger
	stdout io.Writer
	stderr io.Writer
}

// Run parses args and executes the selected command. exit is called by kong
// for --help and usage errors.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name(version.Name),
		kong.Description(version.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"profiles": strings.Join(slices.Sorted(maps.Keys(profiles)), ", "),
			"history":  defaultHistory(),
		},
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	s, err := cli.session()
	if err != nil {
		return err
	}

	if cli.Profile != "" {
		mode, ok := profiles[cli.Profile]
		if !ok {
			return fmt.Errorf("unknown profile kind %q", cli.Profile)
		}
		defer profile.Start(mode, profile.ProfilePath("."), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	return ktx.Run(s)
}

// session loads the configuration and installs the process logger. Flags
// override the file and environment.
func (c *CLI) session() (*session, error) {
	cfg, err := config.Load(c.Config, c.EnvFile)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}

	logger := log.Config(
		log.WithLevel(log.ParseLevel(cfg.Log.Level)),
		log.WithFormat(log.ParseFormat(cfg.Log.Format)),
	)
	return &session{cfg: cfg, logger: logger, stdout: os.Stdout, stderr: os.Stderr}, nil
}

// interpreter builds an Interpreter wired to the session's settings. Relative
// imports resolve against the script's directory unless the configuration
// names another one.
func (s *session) interpreter(source string) *eval.Interpreter {
	bctx := builtins.NewContext()
	bctx.Mail = s.cfg.Mail

	dir := s.cfg.Engine.ImportDir
	if dir == "" || dir == "." {
		dir = filepath.Dir(source)
	}

	sched := timer.New(
		timer.WithMaxTimers(s.cfg.Timers.MaxTimers),
		timer.WithBuffer(s.cfg.Timers.TickBuffer),
		timer.WithLogger(s.logger.Logger),
	)
	return eval.New(
		eval.WithDispatcher(builtins.NewDispatcher(bctx)),
		eval.WithScheduler(sched),
		eval.WithOutput(s.stdout),
		eval.WithLogger(s.logger.Logger),
		eval.WithImportDir(dir),
		eval.WithMaxDepth(s.cfg.Engine.MaxCallDepth),
		eval.WithSource(source),
	)
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}
