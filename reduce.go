// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package cbt

// computeSumReduction restores the counter invariant (every internal
// node's counter equals the sum of its two children's counters) after
// the leaf bitfield has been mutated directly.
//
// It runs in two phases, both dispatched through t.parallelFor and
// separated by that call's implicit barrier:
//
//   - a prepass that folds each 32-bit-aligned word of the leaf
//     bitfield up through five levels (depths maxDepth down to
//     maxDepth-5) using a bit-parallel SWAR reduction, one goroutine
//     task per word;
//   - a tail pass, one barrier-separated parallelFor call per
//     remaining level, that sums each node's two children directly.
func (t *Tree) computeSumReduction() {
	depth := t.maxDepth
	minNodeID := uint32(1) << uint(depth)

	numWords := (1 << uint(depth)) / 32

	t.parallelFor(numWords, func(w int) {
		nodeID := minNodeID + uint32(w)*32
		alignedBitOffset := nodeBitID(t.maxDepth, nodeID, depth)

		bitField := t.heap[alignedBitOffset>>5]
		var bitData uint32

		// fold pairs into 2-bit counters
		bitField = (bitField & 0x55555555) + ((bitField >> 1) & 0x55555555)
		bitData = bitField
		t.heap[(alignedBitOffset-uint64(minNodeID))>>5] = bitData

		// fold into 3-bit counters
		bitField = (bitField & 0x33333333) + ((bitField >> 2) & 0x33333333)
		bitData = ((bitField >> 0) & (7 << 0)) |
			((bitField >> 1) & (7 << 3)) |
			((bitField >> 2) & (7 << 6)) |
			((bitField >> 3) & (7 << 9)) |
			((bitField >> 4) & (7 << 12)) |
			((bitField >> 5) & (7 << 15)) |
			((bitField >> 6) & (7 << 18)) |
			((bitField >> 7) & (7 << 21))
		heapWriteExplicit(t.heap, t.maxDepth, nodeID>>2, depth-2, 24, bitData)

		// fold into 4-bit counters
		bitField = (bitField & 0x0F0F0F0F) + ((bitField >> 4) & 0x0F0F0F0F)
		bitData = ((bitField >> 0) & (15 << 0)) |
			((bitField >> 4) & (15 << 4)) |
			((bitField >> 8) & (15 << 8)) |
			((bitField >> 12) & (15 << 12))
		heapWriteExplicit(t.heap, t.maxDepth, nodeID>>3, depth-3, 16, bitData)

		// fold into 5-bit counters
		bitField = (bitField & 0x00FF00FF) + ((bitField >> 8) & 0x00FF00FF)
		bitData = ((bitField >> 0) & (31 << 0)) |
			((bitField >> 11) & (31 << 5))
		heapWriteExplicit(t.heap, t.maxDepth, nodeID>>4, depth-4, 10, bitData)

		// fold into 6-bit counters
		bitField = (bitField & 0x0000FFFF) + ((bitField >> 16) & 0x0000FFFF)
		bitData = bitField
		heapWriteExplicit(t.heap, t.maxDepth, nodeID>>5, depth-5, 6, bitData)
	})
	t.log.Trace().Int32("depth", depth-5).Msg("sum reduction prepass done")

	depth -= 5

	for depth--; depth >= 0; depth-- {
		d := depth
		minID := uint32(1) << uint(d)
		maxID := uint32(2) << uint(d)
		n := int(maxID - minID)

		t.parallelFor(n, func(i int) {
			j := minID + uint32(i)

			x0 := heapRead(t.heap, t.maxDepth, Node{ID: j << 1, Depth: d + 1})
			x1 := heapRead(t.heap, t.maxDepth, Node{ID: j<<1 | 1, Depth: d + 1})

			heapWrite(t.heap, t.maxDepth, Node{ID: j, Depth: d}, x0+x1)
		})
		t.log.Trace().Int32("depth", d).Msg("sum reduction level done")
	}
}
