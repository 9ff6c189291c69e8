// Package blocktree holds the pure operations over a document's block tree.
//
// A State is a flat, keyed collection of blocks. Parent/child structure lives
// in each block's Children list as ids. Every function here returns new
// values; inputs are never modified, and no returned value shares a backing
// array or map with an input.
package blocktree

import (
	"slices"

	"blocknotes/internal/domain"
)

// State is the full set of blocks of a document keyed by id. Listing order is
// the order blocks were added; it carries no meaning for the tree.
type State struct {
	order []string
	byID  map[string]domain.Block
}

// NewState builds a state from blocks. A repeated id keeps its first position
// and its last value.
func NewState(blocks ...domain.Block) State {
	s := State{
		order: make([]string, 0, len(blocks)),
		byID:  make(map[string]domain.Block, len(blocks)),
	}
	for _, b := range blocks {
		if _, ok := s.byID[b.ID]; !ok {
			s.order = append(s.order, b.ID)
		}
		s.byID[b.ID] = b.Clone()
	}
	return s
}

func (s State) Len() int { return len(s.order) }

func (s State) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns a copy of the block with the given id.
func (s State) Get(id string) (domain.Block, bool) {
	b, ok := s.byID[id]
	if !ok {
		return domain.Block{}, false
	}
	return b.Clone(), true
}

// IDs returns block ids in listing order.
func (s State) IDs() []string {
	return slices.Clone(s.order)
}

// Blocks returns copies of all blocks in listing order.
func (s State) Blocks() []domain.Block {
	out := make([]domain.Block, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id].Clone()
	}
	return out
}

func (s State) clone() State {
	c := State{
		order: slices.Clone(s.order),
		byID:  make(map[string]domain.Block, len(s.byID)),
	}
	for id, b := range s.byID {
		c.byID[id] = b
	}
	return c
}

// Replace swaps in target for the block with the same id, keeping its
// position. Without a match the result equals s.
func Replace(s State, target domain.Block) State {
	out := s.clone()
	if _, ok := out.byID[target.ID]; ok {
		out.byID[target.ID] = target.Clone()
	}
	return out
}

// Append adds target at the end of the listing. If the id is already present
// the existing entry is replaced in place so ids stay unique.
func Append(s State, target domain.Block) State {
	out := s.clone()
	if _, ok := out.byID[target.ID]; !ok {
		out.order = append(out.order, target.ID)
	}
	out.byID[target.ID] = target.Clone()
	return out
}

// Substitute puts source where target was. Used when a block is recreated
// under a new id. Any other entry already holding source's id is dropped.
func Substitute(s State, target, source domain.Block) State {
	out := s.clone()
	pos := slices.Index(out.order, target.ID)
	if pos < 0 {
		return out
	}
	if source.ID != target.ID {
		if other := slices.Index(out.order, source.ID); other >= 0 {
			out.order = slices.Delete(out.order, other, other+1)
			if other < pos {
				pos--
			}
		}
		delete(out.byID, target.ID)
	}
	out.order[pos] = source.ID
	out.byID[source.ID] = source.Clone()
	return out
}

// Remove drops the block with target's id.
func Remove(s State, target domain.Block) State {
	out := s.clone()
	if _, ok := out.byID[target.ID]; !ok {
		return out
	}
	delete(out.byID, target.ID)
	out.order = slices.DeleteFunc(out.order, func(id string) bool { return id == target.ID })
	return out
}
