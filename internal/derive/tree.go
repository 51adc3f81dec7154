// Package derive holds the pure derivation functions of the client: the
// collection tree, item filtering and ordering, duplicate detection and
// citation rendering. Nothing in here mutates canonical state or talks to
// the network; the app store recomputes these projections on every change.
package derive

import (
	"errors"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"refero-cli/internal/model"
)

// ErrCollectionCycle reports a parent chain that loops back on itself.
// The server should never produce one, but a corrupt library must not hang
// the client.
var ErrCollectionCycle = errors.New("collection hierarchy contains a cycle")

// Node is a collection with its resolved children, sibling groups ordered
// by name.
type Node struct {
	model.Collection
	Children []*Node
}

// FlatCollection is a tree node tagged with its depth (roots at 0), for
// indented rendering.
type FlatCollection struct {
	model.Collection
	Level int
}

func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// BuildTree assembles the collection forest from flat parent pointers.
// A collection whose parent key is missing from the input is treated as a
// root, not an error. Sibling groups are sorted by name with locale-aware,
// case-insensitive comparison, recursively.
func BuildTree(cols []model.Collection) ([]*Node, error) {
	if len(cols) == 0 {
		return nil, nil
	}

	nodes := make(map[string]*Node, len(cols))
	for _, c := range cols {
		nodes[c.Key] = &Node{Collection: c}
	}

	var roots []*Node
	for _, c := range cols {
		n := nodes[c.Key]
		parent := string(c.Data.ParentCollection)
		if parent == "" {
			roots = append(roots, n)
			continue
		}
		if parent == c.Key {
			// A self-loop is the smallest possible cycle.
			return nil, ErrCollectionCycle
		}
		if p, ok := nodes[parent]; ok {
			p.Children = append(p.Children, n)
		} else {
			// Orphaned parent reference: keep the collection reachable.
			roots = append(roots, n)
		}
	}

	coll := newCollator()
	var sortSiblings func(ns []*Node)
	sortSiblings = func(ns []*Node) {
		sort.SliceStable(ns, func(i, j int) bool {
			return coll.CompareString(ns[i].Data.Name, ns[j].Data.Name) < 0
		})
		for _, n := range ns {
			sortSiblings(n.Children)
		}
	}
	sortSiblings(roots)

	// Everything not reachable from a root sits on a detached cycle.
	if countNodes(roots) != len(cols) {
		return nil, ErrCollectionCycle
	}
	return roots, nil
}

func countNodes(ns []*Node) int {
	total := 0
	for _, n := range ns {
		total += 1 + countNodes(n.Children)
	}
	return total
}

// Flatten emits the forest in pre-order with depth tags. Idempotent for a
// given tree.
func Flatten(roots []*Node) []FlatCollection {
	var out []FlatCollection
	var walk func(ns []*Node, level int)
	walk = func(ns []*Node, level int) {
		for _, n := range ns {
			out = append(out, FlatCollection{Collection: n.Collection, Level: level})
			walk(n.Children, level+1)
		}
	}
	walk(roots, 0)
	return out
}
