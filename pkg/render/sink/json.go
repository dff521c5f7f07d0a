package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
)

const edgeColor = "#888"

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	roster bool
	indent bool
}

// WithRoster copies users, the current user and team members from the
// layout context into every node, as the tracker's node component expects.
func WithRoster() JSONOption { return func(r *jsonRenderer) { r.roster = true } }

// WithIndent pretty-prints the output.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type flowOutput struct {
	Nodes []flowNode `json:"nodes"`
	Edges []flowEdge `json:"edges"`
}

type flowNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position graph.Position `json:"position"`
	Data     map[string]any `json:"data"`
}

type flowEdge struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Type      string     `json:"type"`
	Style     flowStyle  `json:"style"`
	Animated  bool       `json:"animated"`
	MarkerEnd flowMarker `json:"markerEnd"`
}

type flowStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type flowMarker struct {
	Type   string  `json:"type"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RenderJSON encodes l in React Flow's {nodes, edges} shape.
func RenderJSON(l graph.Layout, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := flowOutput{
		Nodes: make([]flowNode, 0, len(l.Nodes)),
		Edges: make([]flowEdge, 0, len(l.Edges)),
	}
	for _, n := range l.Nodes {
		data, err := r.nodeData(n, l.Context)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		out.Nodes = append(out.Nodes, flowNode{ID: n.ID, Type: n.Type, Position: n.Position, Data: data})
	}
	for _, e := range l.Edges {
		out.Edges = append(out.Edges, flowEdge{
			ID:        e.ID,
			Source:    e.Source,
			Target:    e.Target,
			Type:      e.Type,
			Style:     flowStyle{Stroke: edgeColor, StrokeWidth: 2},
			MarkerEnd: flowMarker{Type: "arrowclosed", Color: edgeColor, Width: 20, Height: 20},
		})
	}

	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

func (r jsonRenderer) nodeData(n graph.Node, ctx *graph.Context) (map[string]any, error) {
	raw, err := json.Marshal(n.Data.Record)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	d := n.Data
	data["level"] = d.Level
	data["isLeafNode"] = d.IsLeaf
	data["isAssignedToCurrentUser"] = d.IsAssignedToCurrentUser
	data["matchesBusinessUnitFilter"] = d.MatchesBusinessUnitFilter
	data["matchesAssignedToFilter"] = d.MatchesAssignedToFilter
	if len(d.Actions) > 0 {
		data["actions"] = d.Actions
	}

	if r.roster && ctx != nil {
		data["users"] = nonNil(ctx.Users)
		data["teamMembers"] = nonNil(ctx.TeamMembers)
		data["currentUser"] = currentUser(ctx)
	}
	return data, nil
}

func currentUser(ctx *graph.Context) any {
	if ctx.Viewer == "" {
		return nil
	}
	for _, u := range ctx.Users {
		if u.TeamsID == ctx.Viewer {
			return u
		}
	}
	return okr.User{TeamsID: ctx.Viewer}
}

func nonNil(users []okr.User) []okr.User {
	if users == nil {
		return []okr.User{}
	}
	return users
}
