package blocktree

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"blocknotes/internal/domain"
)

// ParentOf returns the first block, in listing order, whose children contain id.
func ParentOf(s State, id string) (domain.Block, bool) {
	for _, pid := range s.order {
		if slices.Contains(s.byID[pid].Children, id) {
			return s.byID[pid].Clone(), true
		}
	}
	return domain.Block{}, false
}

// Walk visits the tree under rootID depth-first in children order, starting
// with the root at depth 0. Dangling ids are skipped and each block is
// visited at most once. Returning false from fn stops the walk.
func Walk(s State, rootID string, fn func(b domain.Block, depth int) bool) {
	seen := make(map[string]bool, len(s.byID))
	var visit func(id string, depth int) bool
	visit = func(id string, depth int) bool {
		b, ok := s.byID[id]
		if !ok || seen[id] {
			return true
		}
		seen[id] = true
		if !fn(b.Clone(), depth) {
			return false
		}
		for _, child := range b.Children {
			if !visit(child, depth+1) {
				return false
			}
		}
		return true
	}
	visit(rootID, 0)
}

// Descendants returns the ids beneath id in walk order, excluding id itself.
func Descendants(s State, id string) []string {
	var out []string
	Walk(s, id, func(b domain.Block, depth int) bool {
		if depth > 0 {
			out = append(out, b.ID)
		}
		return true
	})
	return out
}

// Prune drops every block that is not reachable from rootID and removes
// dangling ids from the children lists that remain.
func Prune(s State, rootID string) State {
	keep := make(map[string]bool, len(s.byID))
	Walk(s, rootID, func(b domain.Block, _ int) bool {
		keep[b.ID] = true
		return true
	})

	out := State{
		order: make([]string, 0, len(keep)),
		byID:  make(map[string]domain.Block, len(keep)),
	}
	for _, id := range s.order {
		if !keep[id] {
			continue
		}
		b := s.byID[id].Clone()
		b.Children = slices.DeleteFunc(b.Children, func(c string) bool { return !keep[c] })
		out.order = append(out.order, id)
		out.byID[id] = b
	}
	return out
}

// Validate checks that s forms a single tree under rootID: the root exists,
// every child id resolves, no block has two parents, and every block is
// reachable. All problems found are returned together.
func Validate(s State, rootID string) error {
	var result *multierror.Error

	if !s.Has(rootID) {
		result = multierror.Append(result, fmt.Errorf("root %q not in state", rootID))
	}

	parents := make(map[string]string, len(s.byID))
	for _, pid := range s.order {
		for _, child := range s.byID[pid].Children {
			if !s.Has(child) {
				result = multierror.Append(result, fmt.Errorf("block %q: dangling child %q", pid, child))
				continue
			}
			if child == rootID {
				result = multierror.Append(result, fmt.Errorf("block %q: lists the root as a child", pid))
			}
			if prev, ok := parents[child]; ok {
				result = multierror.Append(result, fmt.Errorf("block %q: has parents %q and %q", child, prev, pid))
				continue
			}
			parents[child] = pid
		}
	}

	reached := make(map[string]bool, len(s.byID))
	Walk(s, rootID, func(b domain.Block, _ int) bool {
		reached[b.ID] = true
		return true
	})
	for _, id := range s.order {
		if !reached[id] {
			result = multierror.Append(result, fmt.Errorf("block %q: not reachable from root", id))
		}
	}

	return result.ErrorOrNil()
}
