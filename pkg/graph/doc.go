// Package graph provides the serialization types for computed OKR layouts.
//
// This package defines the canonical wire format for okrtree's layout data,
// used for JSON files, API responses, caching and renderer input.
//
// # Architecture
//
// The package sits at the boundary between the layout engine and everything
// that consumes its output:
//
//   - pkg/layout computes a [Layout] from okr.Record values
//   - pkg/render/... draws a [Layout] as SVG, DOT, PNG or PDF
//   - pkg/pipeline caches [Layout] values as JSON
//
// # Core Types
//
//   - [Layout]: positioned nodes, edges, bounds and the inputs that shaped them
//   - [Node]: one positioned objective with its derived flags
//   - [Edge]: a parent → child connector
//   - [Context]: viewer, roster and filter selections
//   - [Geometry]: the spacing constants used by the engine
//
// # Layout Serialization
//
//	data, _ := graph.MarshalLayout(l)         // Layout → []byte
//	l, _ := graph.UnmarshalLayout(data)       // []byte → Layout (validated)
//	graph.WriteLayoutFile(l, "tree.json")     // Layout → File
//	l, _ := graph.ReadLayoutFile("tree.json") // File → Layout
//
// A serialized layout looks like:
//
//	{
//	  "nodes": [
//	    {"id": "1", "type": "okrNode", "position": {"x": 210, "y": 0}, ...},
//	    {"id": "2", "type": "okrNode", "position": {"x": 50, "y": 180}, ...}
//	  ],
//	  "edges": [{"id": "e1-2", "source": "1", "target": "2", "type": "smoothstep"}],
//	  "width": 700,
//	  "height": 310
//	}
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
