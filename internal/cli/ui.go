package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette. Status colours follow the tracker's badges.
var (
	paletteAccent = lipgloss.Color("36")
	paletteOK     = lipgloss.Color("35")
	paletteWarn   = lipgloss.Color("220")
	paletteBad    = lipgloss.Color("167")
	paletteLink   = lipgloss.Color("75")
	paletteText   = lipgloss.Color("255")
	paletteMuted  = lipgloss.Color("245")
	paletteFaint  = lipgloss.Color("240")
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(paletteAccent)
	styleAccent  = lipgloss.NewStyle().Foreground(paletteAccent)
	styleLink    = lipgloss.NewStyle().Foreground(paletteLink).Underline(true)
	styleFaint   = lipgloss.NewStyle().Foreground(paletteFaint)
	styleText    = lipgloss.NewStyle().Foreground(paletteText)
	styleOK      = lipgloss.NewStyle().Foreground(paletteOK)
	styleWarn    = lipgloss.NewStyle().Foreground(paletteWarn)
	styleBad     = lipgloss.NewStyle().Foreground(paletteBad)
	styleMuted   = lipgloss.NewStyle().Foreground(paletteMuted)

	styleTableHeader = lipgloss.NewStyle().Foreground(paletteMuted).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(paletteFaint)
)

const (
	markOK     = "✓"
	markFail   = "✗"
	markNote   = "›"
	markOutput = "→"

	labelCached = "cached"
	labelFresh  = "fresh"
)

// statusStyle colours an objective status the way the board badges do.
func statusStyle(status string) lipgloss.Style {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "done":
		return styleOK
	case "on track", "in progress":
		return styleAccent
	case "at risk", "behind":
		return styleWarn
	case "off track", "blocked":
		return styleBad
	}
	return styleMuted
}

// console writes human-facing status lines. Data goes to CLI.out; the
// console carries everything a script would not want to parse.
type console struct {
	w   io.Writer
	tty bool
}

func newConsole(w io.Writer) *console {
	c := &console{w: w}
	if f, ok := w.(*os.File); ok {
		c.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return c
}

func (c *console) line(mark lipgloss.Style, sym, format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", mark.Render(sym), fmt.Sprintf(format, args...))
}

func (c *console) ok(format string, args ...any)   { c.line(styleOK, markOK, format, args...) }
func (c *console) fail(format string, args ...any) { c.line(styleBad, markFail, format, args...) }
func (c *console) note(format string, args ...any) { c.line(styleMuted, markNote, format, args...) }

func (c *console) detail(format string, args ...any) {
	fmt.Fprintln(c.w, "  "+styleFaint.Render(fmt.Sprintf(format, args...)))
}

func (c *console) wrote(path string) {
	fmt.Fprintln(c.w, "  "+styleFaint.Render(markOutput)+" "+styleText.Render(path))
}

func (c *console) stats(records, nodes, edges int, cached bool) {
	fmt.Fprintln(c.w, statsLine(records, nodes, edges, cached))
}

// hint suggests the command to run next.
func (c *console) hint(what, cmd string) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, styleFaint.Render(what+":")+" "+styleLink.Render(cmd))
}

// statsLine summarises a layout: the objective count (when a subtree was
// selected), nodes, edges and whether the layout came from the cache.
func statsLine(records, nodes, edges int, cached bool) string {
	parts := make([]string, 0, 4)
	if records > 0 && records != nodes {
		parts = append(parts, styleFaint.Render(fmt.Sprintf("%d objectives", records)))
	}
	parts = append(parts, styleFaint.Render(fmt.Sprintf("%d nodes", nodes)))
	if edges > 0 {
		parts = append(parts, styleFaint.Render(fmt.Sprintf("%d edges", edges)))
	}
	if cached {
		parts = append(parts, styleOK.Render(labelCached))
	} else {
		parts = append(parts, styleMuted.Render(labelFresh))
	}
	return "  " + strings.Join(parts, styleFaint.Render(" · "))
}
