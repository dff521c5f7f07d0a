package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/render"
)

const (
	pointsPerInch = 72

	accentColor = "#F6490D"
	busColor    = "#8fadd9"
	userColor   = "#d179ba"
	edgeColor   = "#888888"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds status and assignees to node labels.
	// When false, only the objective name is shown.
	Detailed bool
	// NoHighlight draws every node in the default fill.
	NoHighlight bool
}

// ToDOT converts a layout to Graphviz DOT source. Node positions are pinned
// to the computed layout so that neato reproduces the tree rather than
// re-arranging it. The y axis is flipped because Graphviz grows upwards.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  inputscale=%d;\n", pointsPerInch)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, fontsize=14, fontname=\"Helvetica\"];\n")
	fmt.Fprintf(&buf, "  edge [color=%q, arrowhead=normal, penwidth=2];\n", edgeColor)
	buf.WriteString("\n")

	for _, n := range l.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed), !opts.NoHighlight)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	r := n.Data.Record
	name := r.Name
	if name == "" {
		name = string(r.ID)
	}
	if !detailed {
		return name
	}

	parts := []string{name}
	if r.Status != "" {
		parts = append(parts, "status: "+r.Status)
	}
	if len(r.Assignees) > 0 {
		names := make([]string, 0, len(r.Assignees))
		for _, a := range r.Assignees {
			names = append(names, a.Name)
		}
		parts = append(parts, strings.Join(names, ", "))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, label string, highlight bool) []string {
	cx, cy := n.Center()
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(cx), fmtFloat(-cy)),
		fmt.Sprintf("width=%s", fmtFloat(n.Width/pointsPerInch)),
		fmt.Sprintf("height=%s", fmtFloat(n.Height/pointsPerInch)),
	}
	if !highlight {
		return attrs
	}
	d := n.Data
	switch {
	case d.MatchesAssignedToFilter:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", userColor))
	case d.MatchesBusinessUnitFilter:
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", busColor))
	}
	if d.IsAssignedToCurrentUser {
		attrs = append(attrs, fmt.Sprintf("color=%q", accentColor), "penwidth=3")
	}
	return attrs
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG using the neato engine, which honours
// the pinned positions emitted by [ToDOT].
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
