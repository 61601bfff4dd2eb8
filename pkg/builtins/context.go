// Package builtins implements the host side of script builtins: the static
// registry of signatures and the dispatcher that routes calls by category
// prefix.
package builtins

import (
	"ebscript/pkg/config"
	"ebscript/pkg/registry"
	"ebscript/pkg/timer"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// StackEntry is one record of the interpreter's diagnostic call stack.
type StackEntry struct {
	Kind string // block, call, loop or try
	Name string
	Line int
}

// Context is everything a builtin handler may touch. The interpreter owns it
// and passes it explicitly; handlers never reach for global state.
type Context struct {
	Out     io.Writer
	Logger  *slog.Logger
	Timers  *timer.Scheduler
	Plugins *registry.Plugins
	Mail    config.Mail
	HTTP    *http.Client

	// Source names the running script. It is the default timer owner.
	Source string

	// Vars and Stack back debug.vars and debug.stack.
	Vars  func() map[string]any
	Stack func() []StackEntry

	// Sleep blocks for d. The interpreter installs a version that keeps
	// running timer callbacks while it waits.
	Sleep func(d time.Duration) error

	// Now is the clock used by date and system builtins.
	Now func() time.Time

	files   *handles[*fileHandle]
	sockets *handles[*wsConn]
}

// NewContext returns a Context with working defaults for every field.
func NewContext() *Context {
	return &Context{
		Out:     os.Stdout,
		Logger:  slog.New(slog.DiscardHandler),
		Timers:  timer.New(),
		Plugins: registry.NewPlugins(),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Vars:    func() map[string]any { return map[string]any{} },
		Stack:   func() []StackEntry { return nil },
		Sleep: func(d time.Duration) error {
			time.Sleep(d)
			return nil
		},
		Now:     time.Now,
		files:   newHandles[*fileHandle]("file"),
		sockets: newHandles[*wsConn]("ws"),
	}
}

// Close releases open files and sockets.
func (c *Context) Close() {
	for _, f := range c.files.drain() {
		f.close()
	}
	for _, s := range c.sockets.drain() {
		s.conn.Close()
	}
}
