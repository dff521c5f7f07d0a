package layout_test

import (
	"fmt"

	"github.com/matzehuels/okrtree/pkg/layout"
	"github.com/matzehuels/okrtree/pkg/okr"
)

func Example() {
	records := []okr.Record{
		{ID: "1", Name: "Grow Revenue"},
		{ID: "2", Parent: "1", Name: "Expand APAC"},
		{ID: "3", Parent: "1", Name: "Expand EMEA"},
	}

	l, err := layout.Layout(records, layout.Context{})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, n := range l.Nodes {
		fmt.Printf("%s %-12s x=%v y=%v\n", n.ID, n.Data.Record.Name, n.Position.X, n.Position.Y)
	}
	for _, e := range l.Edges {
		fmt.Println(e.ID)
	}
	// Output:
	// 1 Grow Revenue x=210 y=0
	// 2 Expand APAC  x=50 y=180
	// 3 Expand EMEA  x=370 y=180
	// e1-2
	// e1-3
}

func ExampleEngine_Layout_filters() {
	records := []okr.Record{
		{ID: "1", Name: "Grow Revenue", Assignees: []okr.Assignee{{UserID: "ada"}}},
		{ID: "2", Parent: "1", Name: "Expand APAC", BusinessUnits: []okr.BusinessUnit{{ID: "apac"}}},
	}

	e := layout.New(layout.WithGap(20))
	l, _ := e.Layout(records, layout.Context{
		Viewer: "ada",
		Filter: layout.Filter{BusinessUnit: "apac"},
	})

	for _, n := range l.Nodes {
		fmt.Println(n.Data.Record.Name, n.Data.IsAssignedToCurrentUser, n.Data.MatchesBusinessUnitFilter)
	}
	// Output:
	// Grow Revenue true false
	// Expand APAC false true
}
