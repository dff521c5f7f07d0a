package okr

import "github.com/matzehuels/okrtree/pkg/errors"

// SelectAll is the root selection that keeps every record.
const SelectAll = "all"

// Roots returns the records that head a tree: those with no parent and
// those whose parent is not part of records. Input order is preserved.
func Roots(records []Record) []Record {
	known := make(map[ID]struct{}, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}
	var roots []Record
	for _, r := range records {
		if _, ok := known[r.Parent]; r.IsRoot() || !ok {
			roots = append(roots, r)
		}
	}
	return roots
}

// SelectSubtree returns the record identified by root together with all of
// its descendants, in input order. An empty root or [SelectAll] returns
// records unchanged. An unknown root is a NOT_FOUND error.
func SelectSubtree(records []Record, root ID) ([]Record, error) {
	if root == "" || root == SelectAll {
		return records, nil
	}

	children := make(map[ID][]ID)
	found := false
	for _, r := range records {
		if r.ID == root {
			found = true
		}
		if !r.IsRoot() {
			children[r.Parent] = append(children[r.Parent], r.ID)
		}
	}
	if !found {
		return nil, errors.New(errors.ErrCodeNotFound, "okr %q not found", root)
	}

	keep := map[ID]bool{root: true}
	queue := []ID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			if !keep[c] {
				keep[c] = true
				queue = append(queue, c)
			}
		}
	}

	out := make([]Record, 0, len(keep))
	for _, r := range records {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}
