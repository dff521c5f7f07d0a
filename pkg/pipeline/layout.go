package pipeline

import (
	"strings"

	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/layout"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// Decorator adjusts a node after layout, typically to attach per-node
// actions such as edit or drill-down links. Decorators must not move nodes.
type Decorator func(n *graph.Node)

// ActionLinks returns a decorator that sets one action per entry of
// templates. Each template is expanded with the record id in place of
// "{id}".
//
//	pipeline.ActionLinks(map[string]string{"open": "/okrs/{id}"})
func ActionLinks(templates map[string]string) Decorator {
	return func(n *graph.Node) {
		if n.Data.Actions == nil {
			n.Data.Actions = make(map[string]string, len(templates))
		}
		for name, tmpl := range templates {
			n.Data.Actions[name] = strings.ReplaceAll(tmpl, "{id}", string(n.Data.Record.ID))
		}
	}
}

// GenerateLayout narrows records to opts.Root and lays them out. It does
// not apply decorators; see [Decorate].
func GenerateLayout(records []okr.Record, opts Options) (graph.Layout, error) {
	selected, err := okr.SelectSubtree(records, okr.ID(opts.Root))
	if err != nil {
		return graph.Layout{}, err
	}
	return layout.New(opts.EngineOptions()...).Layout(selected, opts.Context())
}

// Decorate runs every decorator over every node of l in place.
func Decorate(l *graph.Layout, decorators ...Decorator) {
	if len(decorators) == 0 {
		return
	}
	for i := range l.Nodes {
		for _, d := range decorators {
			d(&l.Nodes[i])
		}
	}
}
