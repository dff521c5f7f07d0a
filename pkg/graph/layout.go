package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/okrtree/pkg/okr"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is a positioned forest of objectives.
//
// Nodes appear in pre-order: each tree in root order, parents before their
// children, siblings in input order. Width and Height bound every node box
// including the horizontal margin on both sides.
type Layout struct {
	Nodes    []Node   `json:"nodes" bson:"nodes"`
	Edges    []Edge   `json:"edges" bson:"edges"`
	Width    float64  `json:"width" bson:"width"`
	Height   float64  `json:"height" bson:"height"`
	Geometry Geometry `json:"geometry" bson:"geometry"`
	Context  *Context `json:"context,omitempty" bson:"context,omitempty"`
}

// Empty returns a layout with no nodes. Slices are non-nil so that the
// JSON form is {"nodes": [], "edges": []}.
func Empty(g Geometry) Layout {
	return Layout{Nodes: []Node{}, Edges: []Edge{}, Geometry: g}
}

// Node returns the node with the given layout id.
func (l *Layout) Node(id string) (*Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// NodeByRecord returns the node that renders the given objective.
func (l *Layout) NodeByRecord(id okr.ID) (*Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].Data.Record.ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// Validate checks structural consistency: unique node ids and edges whose
// endpoints exist.
func (l *Layout) Validate() error {
	seen := make(map[string]struct{}, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range l.Edges {
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("edge %s: unknown source %q", e.ID, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("edge %s: unknown target %q", e.ID, e.Target)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a validated Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Nodes == nil {
		l.Nodes = []Node{}
	}
	if l.Edges == nil {
		l.Edges = []Edge{}
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

// WriteLayout writes a Layout as indented JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadLayout decodes a Layout from r.
func ReadLayout(r io.Reader) (Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Layout{}, fmt.Errorf("read: %w", err)
	}
	return UnmarshalLayout(data)
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

// IsLayout reports whether data looks like a serialized Layout rather than
// a record list. Used to accept either kind of input file.
func IsLayout(data []byte) bool {
	var probe struct {
		Nodes    json.RawMessage `json:"nodes"`
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Nodes != nil && probe.Geometry != nil
}
