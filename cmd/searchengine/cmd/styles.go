package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// cliStyles mirrors the teacher's Styles struct, trimmed to the handful of
// registers the search CLI actually uses.
type cliStyles struct {
	Status lipgloss.Style
	Match  lipgloss.Style
	Error  lipgloss.Style
	Dim    lipgloss.Style
}

func defaultCLIStyles() cliStyles {
	return cliStyles{
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Match:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func plainCLIStyles() cliStyles {
	return cliStyles{
		Status: lipgloss.NewStyle(),
		Match:  lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
	}
}

// isTTY reports whether w is an interactive terminal, grounded on the
// teacher's ui.IsTTY check.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// stylesFor returns styled output for w when it's an interactive terminal
// and NO_COLOR isn't set, plain output otherwise (piped into a script or CI).
func stylesFor(w io.Writer) cliStyles {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor || !isTTY(w) {
		return plainCLIStyles()
	}
	return defaultCLIStyles()
}

// printStatus writes a single styled status line to w.
func printStatus(w io.Writer, msg string) {
	s := stylesFor(w)
	fmt.Fprintln(w, s.Status.Render(msg))
}
