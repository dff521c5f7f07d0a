// Package pipeline provides the load → layout → render pipeline for okrtree.
//
// This package is shared by the CLI and the HTTP server so that both apply
// the same defaults, caching and hooks.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read records from a [source.Source]
//  2. Layout: select a subtree and compute positions (package layout)
//  3. Render: produce SVG, React-Flow JSON, DOT, PNG or PDF
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, src, pipeline.Options{
//	    Viewer:  "u-17",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	records, err := runner.Load(ctx, src, opts)
//	l, err := runner.ComputeLayout(ctx, records, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
//
// # Live boards
//
// [Live] keeps one layout current while its inputs change. Every change
// recomputes the whole forest and publishes a new version to subscribers.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/okrtree/pkg/cache"
	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/layout"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Visualization types.
const (
	// VizGraph draws the tracker's own cards.
	VizGraph = "graph"
	// VizNodelink hands the layout to Graphviz.
	VizNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizGraph

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizGraph:    true,
	VizNodelink: true,
}

// ContentType returns the MIME type of a rendered format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Query   okr.Query `json:"query,omitzero"`
	Refresh bool      `json:"refresh,omitempty"`

	// Layout options
	Root        string          `json:"root,omitempty"`
	Viewer      okr.ID          `json:"viewer,omitempty"`
	Filter      graph.Filter    `json:"filter,omitzero"`
	Users       []okr.User      `json:"users,omitempty"`
	TeamMembers []okr.User      `json:"team_members,omitempty"`
	Geometry    *graph.Geometry `json:"geometry,omitempty"`
	Strict      bool            `json:"strict,omitempty"`

	// Render options
	VizType  string   `json:"viz_type,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Title    string   `json:"title,omitempty"`
	NoEdges  bool     `json:"no_edges,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger `json:"-"`
	Decorators []Decorator `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Records   []okr.Record
	Layout    graph.Layout
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount int
	NodeCount   int
	EdgeCount   int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool
	LayoutHit bool
	RenderHit bool // all requested formats came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, json, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return errors.New(errors.ErrCodeInvalidVizType,
			"invalid viz_type: %q (must be one of: graph, nodelink)", vizType)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetLayoutDefaults fills in the geometry and logger.
func (o *Options) SetLayoutDefaults() {
	if o.Geometry == nil {
		g := graph.DefaultGeometry()
		o.Geometry = &g
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := o.Geometry.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid geometry")
	}
	if o.Root != "" && o.Root != okr.SelectAll {
		if err := errors.ValidateRecordID(o.Root); err != nil {
			return err
		}
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// ValidateAndSetDefaults prepares options for the full pipeline.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// IsNodelink reports whether output goes through Graphviz.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizNodelink
}

// Context returns the viewer and filter state for the layout engine.
func (o *Options) Context() layout.Context {
	return layout.Context{
		Viewer:      o.Viewer,
		Users:       o.Users,
		TeamMembers: o.TeamMembers,
		Filter:      o.Filter,
	}
}

// EngineOptions translates o into layout engine options.
func (o *Options) EngineOptions() []layout.Option {
	var opts []layout.Option
	if o.Geometry != nil {
		opts = append(opts, layout.WithGeometry(*o.Geometry))
	}
	if o.Strict {
		opts = append(opts, layout.WithStrictParents())
	}
	return opts
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		Root:         o.Root,
		Viewer:       string(o.Viewer),
		BusinessUnit: string(o.Filter.BusinessUnit),
		AssignedTo:   string(o.Filter.AssignedTo),
		Strict:       o.Strict,
	}
	if len(o.Users) > 0 || len(o.TeamMembers) > 0 {
		k.RosterHash, _ = cache.HashJSON([2][]okr.User{o.Users, o.TeamMembers})
	}
	if g := o.Geometry; g != nil {
		k.NodeWidth = g.NodeWidth
		k.NodeHeight = g.NodeHeight
		k.Gap = g.Gap
		k.VerticalSpacing = g.VerticalSpacing
		k.Margin = g.Margin
	}
	return k
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		VizType:  o.VizType,
		Format:   format,
		Title:    o.Title,
		Edges:    !o.NoEdges,
		Detailed: o.Detailed,
		Scale:    o.Scale,
	}
}

func (o *Options) String() string {
	return fmt.Sprintf("root=%q viewer=%q viz=%s formats=%v", o.Root, o.Viewer, o.VizType, o.Formats)
}
