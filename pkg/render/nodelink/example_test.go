package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/okrtree/pkg/layout"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/render/nodelink"
)

func ExampleToDOT() {
	records := []okr.Record{
		{ID: "10", Name: "Grow Revenue"},
		{ID: "11", Parent: "10", Name: "Expand APAC"},
	}
	l, _ := layout.Layout(records, layout.Context{})

	dot := nodelink.ToDOT(l, nodelink.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "1" -> "2";
}
