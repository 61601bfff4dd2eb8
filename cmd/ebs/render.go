package main

import (
	"ebscript/pkg/object"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// renderError prints script diagnostics one per line, styled when w is a
// terminal. A joined parse error renders each of its diagnostics.
func renderError(w io.Writer, err error) {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	where := r.NewStyle().Foreground(lipgloss.Color("8"))
	category := r.NewStyle().Foreground(lipgloss.Color("11"))

	for _, e := range flatten(err) {
		var se *object.Error
		if !errors.As(e, &se) {
			fmt.Fprintln(w, label.Render("error")+" "+e.Error())
			continue
		}
		line := label.Render(se.Type.String())
		if se.Detail != "" {
			line += " " + category.Render("("+se.Detail+")")
		} else if se.Category != "" {
			line += " " + category.Render(se.Category)
		}
		if se.Line > 0 {
			line += " " + where.Render(fmt.Sprintf("line %d", se.Line))
		}
		fmt.Fprintln(w, line+": "+se.Message)
	}
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
