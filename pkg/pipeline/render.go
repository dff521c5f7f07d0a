package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/render"
	"github.com/matzehuels/okrtree/pkg/render/nodelink"
	"github.com/matzehuels/okrtree/pkg/render/sink"
)

// RenderFromLayout generates output artifacts in the requested formats.
// JSON and DOT do not depend on the visualization type.
func RenderFromLayout(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	if opts.IsNodelink() || slices.Contains(opts.Formats, FormatDOT) {
		dot = nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = sink.RenderJSON(l, sink.WithRoster())
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = renderSVG(ctx, l, dot, opts)
		case FormatPNG:
			if opts.IsNodelink() {
				data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
			} else {
				data, err = render.ToPNG(ctx, sink.RenderSVG(l, svgOptions(opts)...), opts.Scale)
			}
		case FormatPDF:
			if opts.IsNodelink() {
				data, err = nodelink.RenderPDF(ctx, dot)
			} else {
				data, err = render.ToPDF(ctx, sink.RenderSVG(l, svgOptions(opts)...))
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderSVG(ctx context.Context, l graph.Layout, dot string, opts Options) ([]byte, error) {
	if opts.IsNodelink() {
		return nodelink.RenderSVG(ctx, dot)
	}
	return sink.RenderSVG(l, svgOptions(opts)...), nil
}

func svgOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.NoEdges {
		out = append(out, sink.WithoutEdges())
	}
	if opts.Title != "" {
		out = append(out, sink.WithTitle(opts.Title))
	}
	return out
}
