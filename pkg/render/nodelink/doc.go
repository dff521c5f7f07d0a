// Package nodelink renders OKR layouts as Graphviz node-link diagrams.
//
// # Overview
//
// The card renderer in package sink draws the tracker's own look. This
// package hands the same layout to Graphviz instead, which is useful when a
// plain boxes-and-arrows diagram or Graphviz tooling is wanted downstream.
//
// # Usage
//
// Convert a layout to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Positions
//
// Every node carries a pinned pos attribute ("x,y!") at its layout centre,
// and width/height in inches, so rendering with neato keeps the tree shape
// computed by package layout. Highlight flags map to fill colours:
// assignee filter matches are pink, business unit matches blue, and nodes
// assigned to the viewer get an orange outline.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
