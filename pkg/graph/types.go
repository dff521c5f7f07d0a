package graph

import (
	"fmt"

	"github.com/matzehuels/okrtree/pkg/okr"
)

const (
	// NodeTypeOKR is the node type understood by the tracker's front end.
	NodeTypeOKR = "okrNode"
	// EdgeTypeSmoothStep is the orthogonal connector with rounded corners.
	EdgeTypeSmoothStep = "smoothstep"
)

// =============================================================================
// Geometry
// =============================================================================

// Geometry holds the spacing constants a layout was computed with.
type Geometry struct {
	NodeWidth       float64 `json:"node_width" bson:"node_width" toml:"node_width"`
	NodeHeight      float64 `json:"node_height" bson:"node_height" toml:"node_height"`
	Gap             float64 `json:"gap" bson:"gap" toml:"gap"`
	VerticalSpacing float64 `json:"vertical_spacing" bson:"vertical_spacing" toml:"vertical_spacing"`
	Margin          float64 `json:"margin" bson:"margin" toml:"margin"`
}

// DefaultGeometry matches the tracker's card size and spacing.
func DefaultGeometry() Geometry {
	return Geometry{
		NodeWidth:       280,
		NodeHeight:      130,
		Gap:             40,
		VerticalSpacing: 180,
		Margin:          50,
	}
}

// Validate rejects geometry that would produce overlapping or inverted
// cards.
func (g Geometry) Validate() error {
	switch {
	case g.NodeWidth <= 0 || g.NodeHeight <= 0:
		return fmt.Errorf("node size must be positive, got %gx%g", g.NodeWidth, g.NodeHeight)
	case g.Gap < 0:
		return fmt.Errorf("gap must not be negative, got %g", g.Gap)
	case g.VerticalSpacing < g.NodeHeight:
		return fmt.Errorf("vertical spacing %g is smaller than node height %g", g.VerticalSpacing, g.NodeHeight)
	case g.Margin < 0:
		return fmt.Errorf("margin must not be negative, got %g", g.Margin)
	}
	return nil
}

// =============================================================================
// Context
// =============================================================================

// Filter carries the optional filter selections. Empty fields are inactive.
type Filter struct {
	BusinessUnit okr.ID `json:"business_unit,omitempty" bson:"business_unit,omitempty"`
	AssignedTo   okr.ID `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
}

// Context is the viewer and roster information that shapes per-node flags.
// Users and TeamMembers are carried through for display only.
type Context struct {
	Viewer      okr.ID     `json:"viewer,omitempty" bson:"viewer,omitempty"`
	Users       []okr.User `json:"users,omitempty" bson:"users,omitempty"`
	TeamMembers []okr.User `json:"team_members,omitempty" bson:"team_members,omitempty"`
	Filter      Filter     `json:"filter" bson:"filter"`
}

// IsZero reports whether c carries no viewer, roster or filter.
func (c Context) IsZero() bool {
	return c.Viewer == "" && len(c.Users) == 0 && len(c.TeamMembers) == 0 && c.Filter == Filter{}
}

// =============================================================================
// Node and Edge
// =============================================================================

// Position is the top-left corner of a node.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Span is the horizontal interval reserved for a node's subtree.
type Span struct {
	Left  float64 `json:"left" bson:"left"`
	Width float64 `json:"width" bson:"width"`
}

// Right returns the exclusive right edge of the span.
func (s Span) Right() float64 { return s.Left + s.Width }

// NodeData is the payload attached to a positioned node.
type NodeData struct {
	Record okr.Record `json:"okr" bson:"okr"`
	Level  int        `json:"level" bson:"level"`
	IsLeaf bool       `json:"is_leaf" bson:"is_leaf"`
	Span   Span       `json:"span" bson:"span"`

	IsAssignedToCurrentUser   bool `json:"is_assigned_to_current_user" bson:"is_assigned_to_current_user"`
	MatchesBusinessUnitFilter bool `json:"matches_business_unit_filter" bson:"matches_business_unit_filter"`
	MatchesAssignedToFilter   bool `json:"matches_assigned_to_filter" bson:"matches_assigned_to_filter"`

	// Actions maps an action name to a caller-defined target, typically a
	// URL. The layout engine never sets it.
	Actions map[string]string `json:"actions,omitempty" bson:"actions,omitempty"`
}

// Node is one positioned objective.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Type     string   `json:"type" bson:"type"`
	Position Position `json:"position" bson:"position"`
	Width    float64  `json:"width" bson:"width"`
	Height   float64  `json:"height" bson:"height"`
	Data     NodeData `json:"data" bson:"data"`
}

// Center returns the midpoint of the node's box.
func (n Node) Center() (x, y float64) {
	return n.Position.X + n.Width/2, n.Position.Y + n.Height/2
}

// Highlighted reports whether any viewer or filter flag is set.
func (n Node) Highlighted() bool {
	d := n.Data
	return d.IsAssignedToCurrentUser || d.MatchesBusinessUnitFilter || d.MatchesAssignedToFilter
}

// Edge connects a parent node to a child node.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Type   string `json:"type" bson:"type"`
}

// EdgeID returns the identifier for the edge from source to target.
func EdgeID(source, target string) string {
	return "e" + source + "-" + target
}
