package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/okrtree/pkg/graph"
)

const cardCSS = `
    .card rect.box { fill: #ffffff; stroke: #d1d5db; stroke-width: 1.5; }
    .card.assigned rect.box { stroke: #F6490D; stroke-width: 3; }
    .card.bu-match rect.box { fill: #eef3fa; }
    .card.user-match rect.box { fill: #faeef7; }
    .card.bu-match.user-match rect.box { fill: #f3eefa; }
    .card .title { font: 600 14px sans-serif; fill: #111111; }
    .card .meta { font: 12px sans-serif; fill: #6b7280; }
    .card .level { font: 11px sans-serif; fill: #9ca3af; }
    .edge { fill: none; stroke: #888; stroke-width: 2; }`

const (
	busColor  = "#8fadd9"
	userColor = "#d179ba"

	cardPadding = 12.0
	charWidth   = 7.4
	lineHeight  = 18.0
	titleLines  = 3
	edgeRadius  = 8.0
)

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	edges     bool
	highlight bool
	title     string
}

// WithoutEdges omits connectors.
func WithoutEdges() SVGOption { return func(r *svgRenderer) { r.edges = false } }

// WithoutHighlight draws every card alike, ignoring viewer and filter flags.
func WithoutHighlight() SVGOption { return func(r *svgRenderer) { r.highlight = false } }

// WithTitle adds a <title> element.
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// RenderSVG draws l as a standalone SVG document.
func RenderSVG(l graph.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{edges: true, highlight: true}
	for _, opt := range opts {
		opt(&r)
	}

	pad := l.Geometry.Margin
	width := math.Max(l.Width, 1)
	height := l.Height + 2*pad

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	renderDefs(&buf)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cardCSS)
	fmt.Fprintf(&buf, "  <g transform=\"translate(0 %.1f)\">\n", pad)

	if r.edges {
		byID := make(map[string]*graph.Node, len(l.Nodes))
		for i := range l.Nodes {
			byID[l.Nodes[i].ID] = &l.Nodes[i]
		}
		for _, e := range l.Edges {
			src, ok1 := byID[e.Source]
			dst, ok2 := byID[e.Target]
			if !ok1 || !ok2 {
				continue
			}
			renderEdge(&buf, e, src, dst)
		}
	}
	for _, n := range l.Nodes {
		r.renderCard(&buf, n)
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#888"/>
    </marker>
  </defs>
`)
}

func renderEdge(buf *bytes.Buffer, e graph.Edge, src, dst *graph.Node) {
	x1 := src.Position.X + src.Width/2
	y1 := src.Position.Y + src.Height
	x2 := dst.Position.X + dst.Width/2
	y2 := dst.Position.Y
	fmt.Fprintf(buf, `    <path id="%s" class="edge" d="%s" marker-end="url(#arrow)"/>`+"\n",
		escapeXML(e.ID), smoothStep(x1, y1, x2, y2))
}

// smoothStep returns an orthogonal path from (x1,y1) down to (x2,y2) that
// turns at the vertical midpoint with rounded corners.
func smoothStep(x1, y1, x2, y2 float64) string {
	if x1 == x2 {
		return fmt.Sprintf("M %.1f %.1f V %.1f", x1, y1, y2)
	}
	mid := (y1 + y2) / 2
	r := math.Min(edgeRadius, math.Min(math.Abs(x2-x1)/2, (y2-y1)/2))
	dir := 1.0
	if x2 < x1 {
		dir = -1
	}
	return fmt.Sprintf("M %.1f %.1f V %.1f Q %.1f %.1f %.1f %.1f H %.1f Q %.1f %.1f %.1f %.1f V %.1f",
		x1, y1,
		mid-r,
		x1, mid, x1+dir*r, mid,
		x2-dir*r,
		x2, mid, x2, mid+r,
		y2)
}

func (r svgRenderer) renderCard(buf *bytes.Buffer, n graph.Node) {
	classes := []string{"card"}
	if r.highlight {
		if n.Data.IsAssignedToCurrentUser {
			classes = append(classes, "assigned")
		}
		if n.Data.MatchesBusinessUnitFilter {
			classes = append(classes, "bu-match")
		}
		if n.Data.MatchesAssignedToFilter {
			classes = append(classes, "user-match")
		}
	}

	x, y, w, h := n.Position.X, n.Position.Y, n.Width, n.Height
	rec := n.Data.Record
	fmt.Fprintf(buf, `    <g id="node-%s" class="%s" data-okr="%s">`+"\n",
		escapeXML(n.ID), strings.Join(classes, " "), escapeXML(string(rec.ID)))
	fmt.Fprintf(buf, `      <rect class="box" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8"/>`+"\n", x, y, w, h)

	maxChars := int((w - 2*cardPadding) / charWidth)
	ty := y + cardPadding + 14
	for _, line := range wrap(rec.Name, maxChars, titleLines) {
		fmt.Fprintf(buf, `      <text class="title" x="%.1f" y="%.1f">%s</text>`+"\n", x+cardPadding, ty, escapeXML(line))
		ty += lineHeight
	}

	if meta := cardMeta(n); meta != "" {
		fmt.Fprintf(buf, `      <text class="meta" x="%.1f" y="%.1f">%s</text>`+"\n",
			x+cardPadding, y+h-cardPadding, escapeXML(truncate(meta, maxChars)))
	}
	fmt.Fprintf(buf, `      <text class="level" x="%.1f" y="%.1f" text-anchor="end">L%d</text>`+"\n",
		x+w-cardPadding, y+cardPadding+12, n.Data.Level)

	if r.highlight {
		dx := x + w - cardPadding - 4
		if n.Data.MatchesAssignedToFilter {
			fmt.Fprintf(buf, `      <circle cx="%.1f" cy="%.1f" r="5" fill="%s"/>`+"\n", dx, y+h-cardPadding-4, userColor)
			dx -= 14
		}
		if n.Data.MatchesBusinessUnitFilter {
			fmt.Fprintf(buf, `      <circle cx="%.1f" cy="%.1f" r="5" fill="%s"/>`+"\n", dx, y+h-cardPadding-4, busColor)
		}
	}
	buf.WriteString("    </g>\n")
}

func cardMeta(n graph.Node) string {
	rec := n.Data.Record
	var parts []string
	if rec.Status != "" {
		parts = append(parts, rec.Status)
	}
	var names []string
	for _, a := range rec.Assignees {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) > 0 {
		parts = append(parts, strings.Join(names, ", "))
	}
	return strings.Join(parts, " · ")
}

// wrap breaks s into at most maxLines lines of at most width runes,
// splitting on spaces. Overlong words and the overflow of the last line are
// truncated.
func wrap(s string, width, maxLines int) []string {
	words := strings.Fields(s)
	var lines []string
	var cur string
	for i, w := range words {
		switch {
		case cur == "":
			cur = w
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= width:
			cur += " " + w
		default:
			lines = append(lines, truncate(cur, width))
			if len(lines) == maxLines-1 {
				return append(lines, truncate(strings.Join(words[i:], " "), width))
			}
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, truncate(cur, width))
	}
	return lines
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 2 {
		return string(r[:width])
	}
	return string(r[:width-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
