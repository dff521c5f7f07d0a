// Package forest reconstructs the objective hierarchy from a flat record list.
//
// A [Forest] is an arena: records stay in the caller's slice and are
// addressed by their position in it. Parent and child links are stored as
// integer indices, so traversals never chase pointers and never recurse.
//
// Build makes two linear passes over the input (index, then link) and
// rejects inputs that cannot form a forest:
//
//   - empty or duplicate identifiers (DUPLICATE_ID, INVALID_INPUT)
//   - cycles, including a record that names itself as parent (CYCLIC_HIERARCHY)
//
// Records whose parent does not resolve become roots and are reported by
// [Forest.Unresolved] so callers can apply a stricter policy.
package forest

import (
	"strings"

	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
)

// None marks the absence of a parent index.
const None = -1

// Forest is an immutable index over a slice of records.
type Forest struct {
	records    []okr.Record
	index      map[okr.ID]int
	parent     []int
	children   [][]int
	roots      []int
	unresolved []int
}

// Build indexes records. The slice is retained, not copied, and must not be
// modified while the forest is in use.
func Build(records []okr.Record) (*Forest, error) {
	f := &Forest{
		records:  records,
		index:    make(map[okr.ID]int, len(records)),
		parent:   make([]int, len(records)),
		children: make([][]int, len(records)),
	}

	for i, r := range records {
		if err := errors.ValidateRecordID(string(r.ID)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "record %d", i)
		}
		if j, dup := f.index[r.ID]; dup {
			return nil, errors.New(errors.ErrCodeDuplicateID,
				"duplicate okr id %q (records %d and %d)", r.ID, j, i)
		}
		f.index[r.ID] = i
	}

	for i, r := range records {
		f.parent[i] = None
		if r.IsRoot() {
			f.roots = append(f.roots, i)
			continue
		}
		p, ok := f.index[r.Parent]
		if !ok {
			f.roots = append(f.roots, i)
			f.unresolved = append(f.unresolved, i)
			continue
		}
		f.parent[i] = p
		f.children[p] = append(f.children[p], i)
	}

	if err := f.checkCycles(); err != nil {
		return nil, err
	}
	return f, nil
}

// checkCycles follows parent links from every record. Each record has at
// most one parent, so a walk either reaches a root or revisits a record of
// the current walk.
func (f *Forest) checkCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make([]uint8, len(f.records))
	var path []int
	for start := range f.records {
		if color[start] != white {
			continue
		}
		path = path[:0]
		i := start
		for i != None && color[i] == white {
			color[i] = gray
			path = append(path, i)
			i = f.parent[i]
		}
		if i != None && color[i] == gray {
			return f.cycleError(path, i)
		}
		for _, j := range path {
			color[j] = black
		}
	}
	return nil
}

func (f *Forest) cycleError(path []int, at int) error {
	var names []string
	for k, j := range path {
		if j == at {
			for _, m := range path[k:] {
				names = append(names, string(f.records[m].ID))
			}
			break
		}
	}
	names = append(names, string(f.records[at].ID))
	return errors.New(errors.ErrCodeCyclicHierarchy, "cyclic hierarchy: %s", strings.Join(names, " → "))
}

// Len returns the number of records.
func (f *Forest) Len() int { return len(f.records) }

// Record returns the record at index i.
func (f *Forest) Record(i int) *okr.Record { return &f.records[i] }

// Parent returns the parent index of i, or [None] for roots.
func (f *Forest) Parent(i int) int { return f.parent[i] }

// Children returns the child indices of i in input order.
func (f *Forest) Children(i int) []int { return f.children[i] }

// IsLeaf reports whether i has no children.
func (f *Forest) IsLeaf(i int) bool { return len(f.children[i]) == 0 }

// Roots returns the root indices in input order.
func (f *Forest) Roots() []int { return f.roots }

// Unresolved returns the indices of records whose parent is missing.
func (f *Forest) Unresolved() []int { return f.unresolved }

// Lookup returns the index of the record with the given id.
func (f *Forest) Lookup(id okr.ID) (int, bool) {
	i, ok := f.index[id]
	return i, ok
}

// PostOrder returns every index such that children precede their parent.
// Trees are visited in root order and siblings in input order.
func (f *Forest) PostOrder() []int {
	out := make([]int, 0, len(f.records))
	type frame struct{ node, next int }
	stack := make([]frame, 0, 16)
	for _, r := range f.roots {
		stack = append(stack, frame{node: r})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(f.children[top.node]) {
				c := f.children[top.node][top.next]
				top.next++
				stack = append(stack, frame{node: c})
				continue
			}
			out = append(out, top.node)
			stack = stack[:len(stack)-1]
		}
	}
	return out
}
