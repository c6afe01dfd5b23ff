// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package cbt

// SplitFast subdivides node n by setting its right child's leaf bit,
// without checking that n can still split. Use only when n.Depth is
// known to be less than t.MaxDepth().
//
// The parent's existing leaf bit already lives at its ceil node, the
// leftmost descendant, so it doubles as the left child's leaf bit;
// only the right child's bit needs setting. The subsequent reduction
// makes the parent's counter read 2, so it is no longer a leaf.
func (t *Tree) SplitFast(n Node) {
	heapWriteLeafBit(t.heap, t.maxDepth, rightChildFast(n), 1)
}

// Split subdivides node n, or does nothing if n is already a ceil
// node (at t.MaxDepth()).
func (t *Tree) Split(n Node) {
	if !t.IsCeil(n) {
		t.SplitFast(n)
	}
}

// MergeFast coarsens node n by clearing its right sibling's leaf bit,
// without checking that n can still merge. Use only when n is known
// not to be the root.
func (t *Tree) MergeFast(n Node) {
	heapWriteLeafBit(t.heap, t.maxDepth, rightSiblingFast(n), 0)
}

// Merge coarsens node n, or does nothing if n is the root.
func (t *Tree) Merge(n Node) {
	if !t.IsRoot(n) {
		t.MergeFast(n)
	}
}

// UpdateFunc is invoked once per live leaf during Update. It may call
// Split/SplitFast/Merge/MergeFast on the node it is given, and must be
// safe to call from many goroutines concurrently.
type UpdateFunc func(t *Tree, n Node)

// Update snapshots the current leaf count N, invokes fn concurrently
// for every handle in [0, N) with its decoded node, then restores the
// counter invariant via a full sum reduction.
//
// fn may split or merge the node it receives (or leave it alone); it
// must not assume any particular order or interleaving with other
// concurrent invocations.
func (t *Tree) Update(fn UpdateFunc) {
	n := int(t.NodeCount())

	t.parallelFor(n, func(i int) {
		fn(t, t.Decode(uint64(i)))
	})

	t.computeSumReduction()
}
