// Package sink renders a graph.Layout directly from its computed
// coordinates.
//
// # SVG
//
// [RenderSVG] draws each objective as a rounded card and each parent link as
// a smooth-step connector with an arrow head. Cards carry CSS classes for
// the viewer and filter flags:
//
//	assigned   the viewer is an assignee
//	bu-match   the business unit filter matches
//	user-match the assigned-to filter matches
//
// # JSON
//
// [RenderJSON] produces the node and edge shape the tracker's React Flow
// canvas consumes: camelCase flags, okr fields flattened into data, and
// edge styling with a closed arrow marker.
package sink
