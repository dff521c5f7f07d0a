package graph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/okrtree/pkg/okr"
)

func twoNodes() Layout {
	l := Empty(DefaultGeometry())
	l.Nodes = []Node{
		{ID: "1", Type: NodeTypeOKR, Width: 280, Height: 130, Data: NodeData{Record: okr.Record{ID: "a"}}},
		{ID: "2", Type: NodeTypeOKR, Position: Position{Y: 180}, Width: 280, Height: 130, Data: NodeData{Record: okr.Record{ID: "b", Parent: "a"}, Level: 1}},
	}
	l.Edges = []Edge{{ID: EdgeID("1", "2"), Source: "1", Target: "2", Type: EdgeTypeSmoothStep}}
	return l
}

func TestEmptyLayoutJSON(t *testing.T) {
	data, err := MarshalLayout(Empty(DefaultGeometry()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodes": []`)
	assert.Contains(t, string(data), `"edges": []`)
	assert.NotContains(t, string(data), `"context"`)
}

func TestLayoutRoundTripThroughWriter(t *testing.T) {
	l := twoNodes()
	l.Context = &Context{Viewer: "u1", Filter: Filter{AssignedTo: "u2"}}

	var buf bytes.Buffer
	require.NoError(t, WriteLayout(l, &buf))
	assert.True(t, IsLayout(buf.Bytes()))

	back, err := ReadLayout(&buf)
	require.NoError(t, err)
	assert.Equal(t, l, back)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
		want   string
	}{
		{"ok", func(*Layout) {}, ""},
		{"duplicate node", func(l *Layout) { l.Nodes[1].ID = "1" }, `duplicate node id "1"`},
		{"empty node id", func(l *Layout) { l.Nodes[0].ID = "" }, "node with empty id"},
		{"unknown source", func(l *Layout) { l.Edges[0].Source = "9" }, `unknown source "9"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := twoNodes()
			tt.mutate(&l)
			err := l.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsLayout(t *testing.T) {
	assert.False(t, IsLayout([]byte(`[{"okr_id": 1}]`)))
	assert.False(t, IsLayout([]byte(`{"okrs": []}`)))
	assert.False(t, IsLayout([]byte(`not json`)))
}

func TestNodeLookups(t *testing.T) {
	l := twoNodes()

	n, ok := l.Node("2")
	require.True(t, ok)
	assert.Equal(t, okr.ID("b"), n.Data.Record.ID)

	n, ok = l.NodeByRecord("a")
	require.True(t, ok)
	assert.Equal(t, "1", n.ID)

	_, ok = l.NodeByRecord("zzz")
	assert.False(t, ok)

	x, y := l.Nodes[1].Center()
	assert.Equal(t, 140.0, x)
	assert.Equal(t, 245.0, y)
}

func TestGeometryValidate(t *testing.T) {
	assert.NoError(t, DefaultGeometry().Validate())

	g := DefaultGeometry()
	g.Gap = -1
	assert.Error(t, g.Validate())

	g = DefaultGeometry()
	g.Margin = -5
	assert.Error(t, g.Validate())
}

func TestContextIsZero(t *testing.T) {
	assert.True(t, Context{}.IsZero())
	assert.False(t, Context{Viewer: "u"}.IsZero())
	assert.False(t, Context{Filter: Filter{BusinessUnit: "b"}}.IsZero())
	assert.False(t, Context{Users: []okr.User{{TeamsID: "u"}}}.IsZero())
}
