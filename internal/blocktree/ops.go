package blocktree

import (
	"time"

	"blocknotes/internal/domain"
)

// AddBlock appends target to the state and to parent's children, then commits
// the updated parent.
func AddBlock(s State, parent, target domain.Block) State {
	next := Append(s, target)
	return Replace(next, AppendChild(parent, target))
}

// InsertBlock is AddBlock with target's id placed at position+1 in parent's
// children.
func InsertBlock(s State, parent, target domain.Block, position int) State {
	next := Append(s, target)
	return Replace(next, InsertChildAt(parent, target, position))
}

// DeleteBlock removes target from the state and from parent's children. The
// target's own descendants are left in place; see Prune.
func DeleteBlock(s State, parent, target domain.Block) State {
	next := Remove(s, target)
	return Replace(next, RemoveChild(parent, target))
}

// ConvertBlockType recreates target as a new block of type t built from patch
// alone. Nothing of target carries over except its slot in the state and in
// parent's children. The new block is returned with the state.
func ConvertBlockType(s State, parent, target domain.Block, t domain.BlockType, patch domain.Patch) (State, domain.Block) {
	return ConvertBlockTypeWith(domain.DefaultFactory, s, parent, target, t, patch)
}

// ConvertBlockTypeWith is ConvertBlockType using f to build the new block.
func ConvertBlockTypeWith(f domain.Factory, s State, parent, target domain.Block, t domain.BlockType, patch domain.Patch) (State, domain.Block) {
	source := f.For(t)(patch)
	next := Substitute(s, target, source)
	return Replace(next, ReplaceChild(parent, target, source)), source
}

// Edit applies the overridable fields of patch to target and bumps UpdatedAt.
// Identity, type, children and CreatedAt are untouched.
func Edit(s State, target domain.Block, patch domain.Patch, now time.Time) State {
	edited := patch.ApplyTo(target.Clone())
	edited.UpdatedAt = domain.Timestamp(now)
	return Replace(s, edited)
}
