// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package cbt

import "github.com/gocbt/cbt/internal/bitfield"

// nodeBitID returns the bit offset, within the heap, of the value
// stored for node (id, depth) in a tree of the given max depth.
//
// For data at level d the base offset is 2^(d+1); id is then scaled by
// the bit width of that level, (maxDepth-d+1). Returned as uint64;
// at maxDepth == 29 the offset reaches up to 2^31-1.
func nodeBitID(maxDepth int32, id uint32, depth int32) uint64 {
	base := uint64(2) << uint(depth)
	width := uint64(maxDepth - depth + 1)
	return base + uint64(id)*width
}

// nodeBitSize returns the number of bits storing a node's value at
// the given depth, in a tree of the given max depth.
func nodeBitSize(maxDepth, depth int32) uint {
	return uint(maxDepth - depth + 1)
}

// heapWords returns the number of uint32 words backing a tree of the
// given max depth.
func heapWords(maxDepth int32) int {
	return heapByteSize(maxDepth) >> 2
}

// heapByteSize returns the number of bytes backing a tree of the
// given max depth: 2^(maxDepth-1).
func heapByteSize(maxDepth int32) int {
	return 1 << uint(maxDepth-1)
}

// heapArgs bounds the (at most two) 32-bit words a bitSize-wide value
// at alignedBitOffset straddles.
type heapArgs struct {
	lsbWord, msbWord         int
	bitOffsetLSB             uint
	bitCountLSB, bitCountMSB uint
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func makeHeapArgs(maxDepth int32, id uint32, depth int32, bitCount uint) heapArgs {
	alignedBitOffset := nodeBitID(maxDepth, id, depth)
	maxWordIndex := heapWords(maxDepth) - 1
	lsbWord := int(alignedBitOffset >> 5)
	msbWord := minInt(lsbWord+1, maxWordIndex)

	bitOffsetLSB := uint(alignedBitOffset & 31)
	bitCountLSB := uint(minInt(int(32-bitOffsetLSB), int(bitCount)))
	bitCountMSB := bitCount - bitCountLSB

	return heapArgs{
		lsbWord:      lsbWord,
		msbWord:      msbWord,
		bitOffsetLSB: bitOffsetLSB,
		bitCountLSB:  bitCountLSB,
		bitCountMSB:  bitCountMSB,
	}
}

// heapReadExplicit reads a bitCount-wide value for node (id, depth)
// from heap, composing the LSB/MSB halves if the value straddles two
// words.
func heapReadExplicit(heap []uint32, maxDepth int32, id uint32, depth int32, bitCount uint) uint32 {
	args := makeHeapArgs(maxDepth, id, depth, bitCount)

	lsb := bitfield.Extract(heap[args.lsbWord], args.bitOffsetLSB, args.bitCountLSB)
	msb := bitfield.Extract(heap[args.msbWord], 0, args.bitCountMSB)

	return lsb | (msb << args.bitCountLSB)
}

// heapWriteExplicit writes a bitCount-wide value for node (id, depth)
// into heap, splitting across two words if necessary. Individually
// atomic per word; see internal/bitfield.
func heapWriteExplicit(heap []uint32, maxDepth int32, id uint32, depth int32, bitCount uint, data uint32) {
	args := makeHeapArgs(maxDepth, id, depth, bitCount)

	bitfield.Insert(&heap[args.lsbWord], args.bitOffsetLSB, args.bitCountLSB, data)
	bitfield.Insert(&heap[args.msbWord], 0, args.bitCountMSB, data>>args.bitCountLSB)
}

// heapRead reads the full-width counter stored for n.
func heapRead(heap []uint32, maxDepth int32, n Node) uint32 {
	return heapReadExplicit(heap, maxDepth, n.ID, n.Depth, nodeBitSize(maxDepth, n.Depth))
}

// heapWrite writes the full-width counter for n.
func heapWrite(heap []uint32, maxDepth int32, n Node, data uint32) {
	heapWriteExplicit(heap, maxDepth, n.ID, n.Depth, nodeBitSize(maxDepth, n.Depth), data)
}

// heapWriteLeafBit sets node n's single-bit entry in the depth-maxDepth
// leaf bitfield, addressed via n's ceil node.
func heapWriteLeafBit(heap []uint32, maxDepth int32, n Node, value uint32) {
	ceil := ceilFast(maxDepth, n)
	bitID := nodeBitID(maxDepth, ceil.ID, ceil.Depth)
	bitfield.SetBit(&heap[bitID>>5], uint(bitID&31), value)
}
