// Package pkg provides the core libraries for okrtree OKR tree layouts.
//
// # Overview
//
// okrtree positions a forest of objectives (OKRs) so that no two cards
// overlap, parents sit centred over their children and every level shares
// one y coordinate. The pkg directory is organized into these areas:
//
//  1. Domain: [okr] records and queries, [forest] indexing, [layout] the
//     tidy-tree engine, [discussion] weekly discussion forms
//  2. Wire format: [graph] layouts, nodes, edges and geometry
//  3. Output: [render], [render/sink] and [render/nodelink]
//  4. Data: [source] and its file, api, mongo, sqlite and postgres backends
//  5. Infrastructure: [cache], [httputil], [observability], [errors]
//  6. Orchestration: [pipeline] load → layout → render, plus the live board
//
// # Architecture
//
// The typical data flow:
//
//	File / tracker API / database
//	         ↓
//	    [source] (records, roster, forms)
//	         ↓
//	    [forest] (parent index, cycle and duplicate checks)
//	         ↓
//	    [layout] (subtree widths, positions, flags)
//	         ↓
//	    [render] SVG / JSON / DOT / PNG / PDF
//
// # Quick Start
//
//	records := []okr.Record{
//	    {ID: "1", Name: "Grow Revenue"},
//	    {ID: "2", Parent: "1", Name: "APAC"},
//	    {ID: "3", Parent: "1", Name: "EMEA"},
//	}
//	l, err := layout.Layout(records, layout.Context{})
//	// l.Nodes[0].Position == {210, 0}; l.Width == 700
//
//	svg := sink.RenderSVG(l, sink.WithTitle("FY26"))
//
// With caching and a source:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	src, _ := file.New("okrs.json")
//	res, err := runner.Execute(ctx, src, pipeline.Options{Formats: []string{"svg", "json"}})
package pkg
