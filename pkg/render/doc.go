// Package render turns computed OKR layouts into viewable artifacts.
//
// # Overview
//
// The subpackages draw a graph.Layout in different ways:
//
//   - [sink]: native SVG and React-Flow-shaped JSON, drawn straight from the
//     computed coordinates
//   - [nodelink]: Graphviz DOT with pinned positions, rendered through
//     go-graphviz
//
// This package holds the format conversion both of them share.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG with the external rsvg-convert tool
// (from librsvg):
//
//	svg := sink.RenderSVG(l)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [sink]: github.com/matzehuels/okrtree/pkg/render/sink
// [nodelink]: github.com/matzehuels/okrtree/pkg/render/nodelink
package render
