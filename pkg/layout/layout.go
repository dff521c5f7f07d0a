// Package layout computes collision-free positions for an OKR forest.
//
// The engine is a tidy-tree variant tuned for fixed-size cards:
//
//  1. Index the records into a forest (package forest). Records whose
//     parent does not resolve become roots.
//  2. Width pass (post-order): a leaf reserves the card width W. An inner
//     node reserves max(W, Σ child spans + gap·(k−1)).
//  3. Position pass (pre-order): each node is centred over its reserved
//     span. Children are packed left to right from the span's left edge,
//     separated by the gap.
//  4. Roots are packed the same way from the left margin.
//  5. Per-node flags are derived from the record and the [Context].
//
// Both passes walk explicit stacks, so arbitrarily deep chains are safe.
// The engine holds no mutable state: one Engine may serve concurrent
// callers, and equal inputs always produce equal output.
//
// # Example
//
//	l, err := layout.New().Layout(records, layout.Context{Viewer: "u-17"})
//	for _, n := range l.Nodes {
//	    fmt.Println(n.Data.Record.Name, n.Position.X, n.Position.Y)
//	}
package layout

import (
	"slices"
	"strconv"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/forest"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Context is the viewer and filter state applied to every node.
type Context = graph.Context

// Filter is the optional business unit and assignee filter.
type Filter = graph.Filter

// Option configures an [Engine].
type Option func(*Engine)

// WithGeometry replaces all spacing constants at once.
func WithGeometry(g graph.Geometry) Option {
	return func(e *Engine) { e.geom = g }
}

// WithNodeSize sets the card size.
func WithNodeSize(width, height float64) Option {
	return func(e *Engine) {
		e.geom.NodeWidth = width
		e.geom.NodeHeight = height
	}
}

// WithGap sets the horizontal gap between sibling subtrees and between roots.
func WithGap(gap float64) Option {
	return func(e *Engine) { e.geom.Gap = gap }
}

// WithVerticalSpacing sets the distance between consecutive levels.
func WithVerticalSpacing(s float64) Option {
	return func(e *Engine) { e.geom.VerticalSpacing = s }
}

// WithMargin sets the x coordinate at which the first root's span starts.
func WithMargin(m float64) Option {
	return func(e *Engine) { e.geom.Margin = m }
}

// WithStrictParents rejects records whose parent is missing instead of
// promoting them to roots.
func WithStrictParents() Option {
	return func(e *Engine) { e.strict = true }
}

// Engine lays out record lists. The zero value is not usable; call [New].
type Engine struct {
	geom   graph.Geometry
	strict bool
}

// New returns an engine with the default geometry.
func New(opts ...Option) *Engine {
	e := &Engine{geom: graph.DefaultGeometry()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Geometry returns the spacing constants the engine uses.
func (e *Engine) Geometry() graph.Geometry { return e.geom }

// Strict reports whether unresolved parents are rejected.
func (e *Engine) Strict() bool { return e.strict }

// Layout positions records with a default engine.
func Layout(records []okr.Record, ctx Context) (graph.Layout, error) {
	return New().Layout(records, ctx)
}

// Layout positions records and derives per-node flags from ctx.
//
// An empty input yields an empty layout. Invalid hierarchies (duplicate
// ids, cycles, or unresolved parents in strict mode) yield an error and no
// partial result.
func (e *Engine) Layout(records []okr.Record, ctx Context) (graph.Layout, error) {
	if err := e.geom.Validate(); err != nil {
		return graph.Layout{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid geometry")
	}

	out := graph.Empty(e.geom)
	if !ctx.IsZero() {
		c := ctx
		out.Context = &c
	}
	if len(records) == 0 {
		return out, nil
	}

	f, err := forest.Build(records)
	if err != nil {
		return graph.Layout{}, err
	}
	if e.strict {
		if u := f.Unresolved(); len(u) > 0 {
			r := f.Record(u[0])
			return graph.Layout{}, errors.New(errors.ErrCodeUnknownParent,
				"okr %q references unknown parent %q (%d unresolved)", r.ID, r.Parent, len(u))
		}
	}

	widths := e.SubtreeWidths(f)
	e.place(f, widths, ctx, &out)
	return out, nil
}

// SubtreeWidths returns the reserved span width of every record, indexed
// like the forest.
func (e *Engine) SubtreeWidths(f *forest.Forest) []float64 {
	w := make([]float64, f.Len())
	for _, i := range f.PostOrder() {
		kids := f.Children(i)
		if len(kids) == 0 {
			w[i] = e.geom.NodeWidth
			continue
		}
		sum := e.geom.Gap * float64(len(kids)-1)
		for _, c := range kids {
			sum += w[c]
		}
		w[i] = max(e.geom.NodeWidth, sum)
	}
	return w
}

// ForestWidth returns the total span of all roots including the gaps
// between them, excluding margins.
func (e *Engine) ForestWidth(f *forest.Forest, widths []float64) float64 {
	roots := f.Roots()
	if len(roots) == 0 {
		return 0
	}
	total := e.geom.Gap * float64(len(roots)-1)
	for _, r := range roots {
		total += widths[r]
	}
	return total
}

type frame struct {
	index  int
	left   float64
	level  int
	parent string
}

func (e *Engine) place(f *forest.Forest, widths []float64, ctx Context, out *graph.Layout) {
	g := e.geom
	out.Nodes = make([]graph.Node, 0, f.Len())
	out.Edges = make([]graph.Edge, 0, f.Len()-len(f.Roots()))

	stack := make([]frame, 0, len(f.Roots()))
	stack = e.pushRow(stack, f.Roots(), widths, g.Margin, 0, "")

	maxLevel := 0
	seq := 0
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		seq++
		id := strconv.Itoa(seq)
		rec := f.Record(fr.index)
		span := widths[fr.index]

		out.Nodes = append(out.Nodes, graph.Node{
			ID:   id,
			Type: graph.NodeTypeOKR,
			Position: graph.Position{
				X: fr.left + (span-g.NodeWidth)/2,
				Y: float64(fr.level) * g.VerticalSpacing,
			},
			Width:  g.NodeWidth,
			Height: g.NodeHeight,
			Data: graph.NodeData{
				Record:                    *rec,
				Level:                     fr.level,
				IsLeaf:                    f.IsLeaf(fr.index),
				Span:                      graph.Span{Left: fr.left, Width: span},
				IsAssignedToCurrentUser:   rec.AssignedTo(ctx.Viewer),
				MatchesBusinessUnitFilter: rec.InBusinessUnit(ctx.Filter.BusinessUnit),
				MatchesAssignedToFilter:   rec.AssignedTo(ctx.Filter.AssignedTo),
			},
		})
		if fr.parent != "" {
			out.Edges = append(out.Edges, graph.Edge{
				ID:     graph.EdgeID(fr.parent, id),
				Source: fr.parent,
				Target: id,
				Type:   graph.EdgeTypeSmoothStep,
			})
		}
		maxLevel = max(maxLevel, fr.level)

		stack = e.pushRow(stack, f.Children(fr.index), widths, fr.left, fr.level+1, id)
	}

	out.Width = 2*g.Margin + e.ForestWidth(f, widths)
	out.Height = float64(maxLevel)*g.VerticalSpacing + g.NodeHeight
}

// pushRow packs siblings left to right from left and pushes them so that
// the leftmost sibling is popped first.
func (e *Engine) pushRow(stack []frame, row []int, widths []float64, left float64, level int, parent string) []frame {
	start := len(stack)
	cursor := left
	for _, i := range row {
		stack = append(stack, frame{index: i, left: cursor, level: level, parent: parent})
		cursor += widths[i] + e.geom.Gap
	}
	slices.Reverse(stack[start:])
	return stack
}
