// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package cbt

import "testing"

// assertCounterSumInvariant recursively checks that every non-ceil
// node's counter equals the sum of its children's, which
// computeSumReduction must restore after any direct bitfield mutation.
func assertCounterSumInvariant(t *testing.T, tree *Tree, n Node) {
	t.Helper()

	count := heapRead(tree.heap, tree.maxDepth, n)
	if tree.IsCeil(n) {
		if count > 1 {
			t.Fatalf("ceil node %+v has counter %d, want 0 or 1", n, count)
		}
		return
	}

	left := heapRead(tree.heap, tree.maxDepth, leftChildFast(n))
	right := heapRead(tree.heap, tree.maxDepth, rightChildFast(n))
	if count != left+right {
		t.Fatalf("node %+v counter %d != children sum %d+%d", n, count, left, right)
	}

	if count > 1 {
		assertCounterSumInvariant(t, tree, leftChildFast(n))
		assertCounterSumInvariant(t, tree, rightChildFast(n))
	}
}

func TestSumReductionAfterReset(t *testing.T) {
	tree := NewTreeAtDepth(MinMaxDepth+4, 7)
	assertCounterSumInvariant(t, tree, rootNode)
}

func TestSumReductionAfterUpdate(t *testing.T) {
	tree := NewTreeAtDepth(MinMaxDepth+4, 9)

	tree.Update(func(t *Tree, n Node) {
		if n.ID%2 == 0 && !t.IsCeil(n) {
			t.SplitFast(n)
		}
	})

	assertCounterSumInvariant(t, tree, rootNode)
}

func TestSumReductionCrossesWordBoundaries(t *testing.T) {
	// MinMaxDepth+1 gives a 64-bit leaf bitfield (two prepass words);
	// the first word's depth-(maxDepth-2) write starts at bit 16 and
	// is 24 bits wide, exercising the straddling-word path in
	// heapWriteExplicit for the upper levels of the reduction.
	tree := NewTree(MinMaxDepth + 1)
	tree.ResetToMaxDepth()

	assertCounterSumInvariant(t, tree, rootNode)
}
