package blocktree

import (
	"slices"

	"blocknotes/internal/domain"
)

// RemoveChild drops every occurrence of target's id from parent's children.
func RemoveChild(parent, target domain.Block) domain.Block {
	out := parent.Clone()
	out.Children = slices.DeleteFunc(out.Children, func(id string) bool { return id == target.ID })
	return out
}

// AppendChild adds target's id as the last child of parent.
func AppendChild(parent, target domain.Block) domain.Block {
	out := parent.Clone()
	out.Children = append(out.Children, target.ID)
	return out
}

// InsertChildAt places target's id right after the child currently at
// position, so it ends up at index position+1. A negative position inserts at
// the front and a position past the last child appends.
func InsertChildAt(parent, target domain.Block, position int) domain.Block {
	out := parent.Clone()
	at := position + 1
	switch {
	case position < 0:
		at = 0
	case at > len(out.Children):
		at = len(out.Children)
	}
	out.Children = slices.Insert(out.Children, at, target.ID)
	return out
}

// ReplaceChild swaps target's id for source's id wherever it occurs,
// preserving position.
func ReplaceChild(parent, target, source domain.Block) domain.Block {
	out := parent.Clone()
	for i, id := range out.Children {
		if id == target.ID {
			out.Children[i] = source.ID
		}
	}
	return out
}
