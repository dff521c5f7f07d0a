package layout

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/forest"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
)

func rec(id, parent string) okr.Record {
	return okr.Record{ID: okr.ID(id), Parent: okr.ID(parent), Name: "okr " + id}
}

func growRevenue() []okr.Record {
	return []okr.Record{
		{ID: "1", Name: "Grow Revenue"},
		{ID: "2", Parent: "1", Name: "Expand APAC"},
		{ID: "3", Parent: "1", Name: "Expand EMEA"},
	}
}

// randomForest builds n records where each record's parent is drawn from
// the records before it, so the result is always acyclic.
func randomForest(seed uint64, n int) []okr.Record {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	records := make([]okr.Record, n)
	for i := range records {
		records[i] = rec(strconv.Itoa(i+1), "")
		if i > 0 && r.IntN(5) != 0 {
			records[i].Parent = okr.ID(strconv.Itoa(r.IntN(i) + 1))
		}
	}
	r.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
	return records
}

func TestLayoutEmpty(t *testing.T) {
	for _, in := range [][]okr.Record{nil, {}} {
		l, err := Layout(in, Context{})
		require.NoError(t, err)
		assert.NotNil(t, l.Nodes)
		assert.NotNil(t, l.Edges)
		assert.Empty(t, l.Nodes)
		assert.Empty(t, l.Edges)
		assert.Nil(t, l.Context)
	}
}

func TestLayoutSingleRoot(t *testing.T) {
	l, err := Layout([]okr.Record{rec("a", "")}, Context{})
	require.NoError(t, err)

	require.Len(t, l.Nodes, 1)
	assert.Empty(t, l.Edges)

	n := l.Nodes[0]
	assert.Equal(t, "1", n.ID)
	assert.Equal(t, graph.NodeTypeOKR, n.Type)
	assert.Equal(t, graph.Position{X: 50, Y: 0}, n.Position)
	assert.Equal(t, 0, n.Data.Level)
	assert.True(t, n.Data.IsLeaf)
	assert.Equal(t, 380.0, l.Width)
	assert.Equal(t, 130.0, l.Height)
}

func TestLayoutGrowRevenue(t *testing.T) {
	l, err := Layout(growRevenue(), Context{})
	require.NoError(t, err)
	require.Len(t, l.Nodes, 3)

	root, _ := l.NodeByRecord("1")
	apac, _ := l.NodeByRecord("2")
	emea, _ := l.NodeByRecord("3")

	assert.Equal(t, graph.Position{X: 210, Y: 0}, root.Position)
	assert.Equal(t, graph.Position{X: 50, Y: 180}, apac.Position)
	assert.Equal(t, graph.Position{X: 370, Y: 180}, emea.Position)

	// root centred above its children
	rootX, _ := root.Center()
	apacX, _ := apac.Center()
	emeaX, _ := emea.Center()
	assert.Equal(t, (apacX+emeaX)/2, rootX)

	assert.Equal(t, apac.Data.Span.Width+40+emea.Data.Span.Width, root.Data.Span.Width)
	assert.False(t, root.Data.IsLeaf)
	assert.True(t, apac.Data.IsLeaf)

	assert.Equal(t, []graph.Edge{
		{ID: "e1-2", Source: "1", Target: "2", Type: graph.EdgeTypeSmoothStep},
		{ID: "e1-3", Source: "1", Target: "3", Type: graph.EdgeTypeSmoothStep},
	}, l.Edges)

	assert.Equal(t, 700.0, l.Width)
	assert.Equal(t, 310.0, l.Height)
}

func TestLayoutPreOrderIDs(t *testing.T) {
	l, err := Layout([]okr.Record{
		rec("a", ""),
		rec("b", "a"),
		rec("c", ""),
		rec("d", "b"),
		rec("e", "a"),
	}, Context{})
	require.NoError(t, err)

	var order []okr.ID
	for i, n := range l.Nodes {
		assert.Equal(t, strconv.Itoa(i+1), n.ID)
		order = append(order, n.Data.Record.ID)
	}
	assert.Equal(t, []okr.ID{"a", "b", "d", "e", "c"}, order)
}

func TestLayoutRootsSideBySide(t *testing.T) {
	l, err := Layout([]okr.Record{rec("a", ""), rec("b", ""), rec("c", "b"), rec("d", "b")}, Context{})
	require.NoError(t, err)

	a, _ := l.NodeByRecord("a")
	b, _ := l.NodeByRecord("b")
	assert.Equal(t, 50.0, a.Data.Span.Left)
	assert.Equal(t, 50.0+280+40, b.Data.Span.Left)
	assert.Equal(t, 600.0, b.Data.Span.Width)
	assert.Equal(t, 2*50.0+280+40+600, l.Width)
}

func TestLayoutWideParentCentresChildren(t *testing.T) {
	l, err := New(WithNodeSize(300, 100), WithGap(10), WithVerticalSpacing(150)).
		Layout([]okr.Record{rec("p", ""), rec("c", "p")}, Context{})
	require.NoError(t, err)

	p, _ := l.NodeByRecord("p")
	c, _ := l.NodeByRecord("c")
	assert.Equal(t, p.Position.X, c.Position.X)
	assert.Equal(t, 150.0, c.Position.Y)
	assert.Equal(t, 300.0, p.Data.Span.Width)
}

func TestLayoutUnresolvedParent(t *testing.T) {
	records := []okr.Record{rec("a", ""), rec("b", "ghost")}

	l, err := Layout(records, Context{})
	require.NoError(t, err)
	b, ok := l.NodeByRecord("b")
	require.True(t, ok)
	assert.Equal(t, 0, b.Data.Level)
	assert.Empty(t, l.Edges)

	_, err = New(WithStrictParents()).Layout(records, Context{})
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownParent), "got %v", err)
}

func TestLayoutRejectsInvalidHierarchy(t *testing.T) {
	tests := []struct {
		name    string
		records []okr.Record
		code    errors.Code
	}{
		{"cycle", []okr.Record{rec("a", ""), rec("b", "c"), rec("c", "b")}, errors.ErrCodeCyclicHierarchy},
		{"self parent", []okr.Record{rec("a", "a")}, errors.ErrCodeCyclicHierarchy},
		{"duplicate", []okr.Record{rec("a", ""), rec("a", "")}, errors.ErrCodeDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Layout(tt.records, Context{})
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
			assert.Empty(t, l.Nodes)
		})
	}
}

func TestLayoutRejectsBadGeometry(t *testing.T) {
	_, err := New(WithNodeSize(0, 100)).Layout(growRevenue(), Context{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = New(WithVerticalSpacing(10)).Layout(growRevenue(), Context{})
	assert.Error(t, err)
}

func TestLayoutFlags(t *testing.T) {
	records := []okr.Record{
		{
			ID:            "1",
			Assignees:     []okr.Assignee{{UserID: "viewer"}},
			BusinessUnits: []okr.BusinessUnit{{ID: "bu-1"}},
		},
		{
			ID:            "2",
			Parent:        "1",
			Assignees:     []okr.Assignee{{UserID: "someone"}},
			BusinessUnits: []okr.BusinessUnit{{BusinessUnitID: "bu-2"}},
		},
		{ID: "3", Parent: "1"},
	}
	ctx := Context{
		Viewer: "viewer",
		Filter: Filter{BusinessUnit: "bu-2", AssignedTo: "someone"},
	}

	l, err := Layout(records, ctx)
	require.NoError(t, err)
	require.NotNil(t, l.Context)
	assert.Equal(t, ctx, *l.Context)

	tests := []struct {
		id                 okr.ID
		assigned, bu, user bool
	}{
		{"1", true, false, false},
		{"2", false, true, true},
		{"3", false, false, false},
	}
	for _, tt := range tests {
		n, ok := l.NodeByRecord(tt.id)
		require.True(t, ok)
		assert.Equal(t, tt.assigned, n.Data.IsAssignedToCurrentUser, "okr %s assigned", tt.id)
		assert.Equal(t, tt.bu, n.Data.MatchesBusinessUnitFilter, "okr %s business unit", tt.id)
		assert.Equal(t, tt.user, n.Data.MatchesAssignedToFilter, "okr %s assigned-to", tt.id)
		assert.Equal(t, tt.assigned || tt.bu || tt.user, n.Highlighted())
	}
}

func TestLayoutFlagsIgnoreGeometry(t *testing.T) {
	plain, err := Layout(growRevenue(), Context{})
	require.NoError(t, err)
	filtered, err := Layout(growRevenue(), Context{Viewer: "x", Filter: Filter{AssignedTo: "y"}})
	require.NoError(t, err)

	for i := range plain.Nodes {
		assert.Equal(t, plain.Nodes[i].Position, filtered.Nodes[i].Position)
	}
}

func TestLayoutProperties(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		records := randomForest(seed, 60)
		e := New()
		l, err := e.Layout(records, Context{})
		require.NoError(t, err, "seed %d", seed)
		require.Len(t, l.Nodes, len(records))

		f, err := forest.Build(records)
		require.NoError(t, err)
		widths := e.SubtreeWidths(f)
		g := e.Geometry()

		byRecord := make(map[okr.ID]graph.Node, len(l.Nodes))
		for _, n := range l.Nodes {
			byRecord[n.Data.Record.ID] = n
		}

		// width monotonicity
		for i := 0; i < f.Len(); i++ {
			assert.GreaterOrEqual(t, widths[i], g.NodeWidth)
			if kids := f.Children(i); len(kids) > 0 {
				sum := g.Gap * float64(len(kids)-1)
				for _, c := range kids {
					sum += widths[c]
				}
				assert.GreaterOrEqual(t, widths[i], sum)
			}
		}

		// sibling non-overlap, including roots
		rows := [][]int{f.Roots()}
		for i := 0; i < f.Len(); i++ {
			rows = append(rows, f.Children(i))
		}
		for _, row := range rows {
			for k := 1; k < len(row); k++ {
				prev := byRecord[f.Record(row[k-1]).ID].Data.Span
				next := byRecord[f.Record(row[k]).ID].Data.Span
				assert.LessOrEqual(t, prev.Right(), next.Left, "seed %d", seed)
			}
		}

		// depth-to-y and centring
		for i := 0; i < f.Len(); i++ {
			n := byRecord[f.Record(i).ID]
			depth := 0
			for p := f.Parent(i); p != forest.None; p = f.Parent(p) {
				depth++
			}
			assert.Equal(t, depth, n.Data.Level)
			assert.Equal(t, float64(depth)*g.VerticalSpacing, n.Position.Y)
			assert.InDelta(t, n.Data.Span.Left+n.Data.Span.Width/2, n.Position.X+g.NodeWidth/2, 1e-9)
		}

		// one edge per non-root, wired to the parent's node
		assert.Len(t, l.Edges, f.Len()-len(f.Roots()))
		byNodeID := make(map[string]graph.Node, len(l.Nodes))
		for _, n := range l.Nodes {
			byNodeID[n.ID] = n
		}
		for _, edge := range l.Edges {
			child := byNodeID[edge.Target].Data.Record
			parent := byNodeID[edge.Source].Data.Record
			assert.Equal(t, child.Parent, parent.ID)
			assert.Equal(t, graph.EdgeID(edge.Source, edge.Target), edge.ID)
		}
		assert.NoError(t, l.Validate())
	}
}

func TestLayoutIdempotent(t *testing.T) {
	records := randomForest(42, 80)
	ctx := Context{Viewer: "3"}

	first, err := Layout(records, ctx)
	require.NoError(t, err)
	second, err := Layout(records, ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLayoutDoesNotMutateInput(t *testing.T) {
	records := growRevenue()
	before := append([]okr.Record(nil), records...)

	_, err := Layout(records, Context{Viewer: "x"})
	require.NoError(t, err)
	assert.Equal(t, before, records)
}

func TestLayoutDeepChain(t *testing.T) {
	const depth = 50_000
	records := make([]okr.Record, depth)
	for i := range records {
		records[i] = rec(strconv.Itoa(i), "")
		if i > 0 {
			records[i].Parent = okr.ID(strconv.Itoa(i - 1))
		}
	}

	l, err := Layout(records, Context{})
	require.NoError(t, err)
	last := l.Nodes[len(l.Nodes)-1]
	assert.Equal(t, depth-1, last.Data.Level)
	assert.Equal(t, 50.0, last.Position.X)
}

func BenchmarkLayout(b *testing.B) {
	records := randomForest(7, 2000)
	e := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Layout(records, Context{}); err != nil {
			b.Fatal(err)
		}
	}
}
