// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package cbt implements a concurrent binary tree: a bit-packed
// implicit binary tree supporting massively parallel node-level split
// and merge, O(1) leaf counting, and O(depth) leaf enumeration by
// linear index. It is the substrate real-time adaptive tessellation
// schemes (Longest-Edge Bisection) build their conforming overlay on
// top of; that overlay is not part of this package.
package cbt

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	// MinMaxDepth is the smallest supported tree max depth.
	MinMaxDepth = 5
	// MaxMaxDepth is the largest supported tree max depth. At this
	// depth the heap is 256 MiB and NodeCount reaches up to 2^29;
	// handles and counts are uint64 throughout this package.
	MaxMaxDepth = 29
)

// Tree is a concurrent binary tree: an implicit heap of per-node leaf
// counters, one bit-packed array per tree, exclusively owned by the
// *Tree value. The zero Tree is not usable; construct one with NewTree
// or NewTreeAtDepth.
type Tree struct {
	maxDepth int32
	heap     []uint32

	log         zerolog.Logger
	parallelFor ParallelFor
}

// Config holds Tree construction options, assembled via Option
// functions. Mirrors the Config+Option+With* idiom used throughout
// this codebase's configuration surfaces.
type Config struct {
	Logger      zerolog.Logger
	ParallelFor ParallelFor
}

// DefaultConfig is the configuration used when no Option overrides it.
var DefaultConfig = Config{
	Logger:      zerolog.Nop(),
	ParallelFor: defaultParallelFor,
}

// Option configures a Tree at construction time.
type Option func(*Config)

// WithLogger installs a structured logger for tree lifecycle and
// reduction-phase diagnostics. The default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithParallelFor installs a caller-supplied parallel-for executor,
// used by Update and by the sum-reduction phases. The default spreads
// work across runtime.GOMAXPROCS(0) goroutines via an errgroup.
func WithParallelFor(pf ParallelFor) Option {
	return func(c *Config) {
		c.ParallelFor = pf
	}
}

// assertf panics with a formatted message if cond is false. This is
// the library's sole error-reporting mechanism: a precondition
// violation here always means a caller bug, not a runtime condition
// worth a recoverable error return (see SPEC_FULL.md §6.3).
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// NewTree allocates a tree of the given max depth, reset to depth 0
// (a single root leaf).
func NewTree(maxDepth int32, opts ...Option) *Tree {
	return NewTreeAtDepth(maxDepth, 0, opts...)
}

// NewTreeAtDepth allocates a tree of the given max depth, reset to
// depth: every node (id, depth) with id in [2^depth, 2^(depth+1)) is a
// live leaf.
func NewTreeAtDepth(maxDepth, depth int32, opts ...Option) *Tree {
	assertf(maxDepth >= MinMaxDepth, "maxDepth must be at least %d, got %d", MinMaxDepth, maxDepth)
	assertf(maxDepth <= MaxMaxDepth, "maxDepth must be at most %d, got %d", MaxMaxDepth, maxDepth)

	cfg := DefaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		maxDepth:    maxDepth,
		heap:        make([]uint32, heapWords(maxDepth)),
		log:         cfg.Logger.With().Str("component", "cbt").Logger(),
		parallelFor: cfg.ParallelFor,
	}

	t.log.Debug().Int32("max_depth", maxDepth).Int32("depth", depth).Msg("new tree")
	t.ResetToDepth(depth)

	return t
}

// MaxDepth returns the tree's fixed maximum depth.
func (t *Tree) MaxDepth() int32 {
	return t.maxDepth
}

// ResetToDepth clears the tree and sets every node at the given depth
// as a live leaf, then restores the counter invariant via a full sum
// reduction.
//
// Precondition: 0 <= depth <= t.MaxDepth().
func (t *Tree) ResetToDepth(depth int32) {
	assertf(depth >= 0, "depth must be at least 0, got %d", depth)
	assertf(depth <= t.maxDepth, "depth must be at most %d, got %d", t.maxDepth, depth)

	for i := range t.heap {
		t.heap[i] = 0
	}

	minID := uint32(1) << uint(depth)
	maxID := uint32(2) << uint(depth)

	for id := minID; id < maxID; id++ {
		heapWriteLeafBit(t.heap, t.maxDepth, Node{ID: id, Depth: depth}, 1)
	}

	t.computeSumReduction()

	t.log.Debug().Int32("depth", depth).Uint64("node_count", t.NodeCount()).Msg("reset to depth")
}

// ResetToMaxDepth resets the tree to its maximum subdivision level:
// every possible leaf is live.
func (t *Tree) ResetToMaxDepth() {
	t.ResetToDepth(t.maxDepth)
}

// HeapByteSize returns the number of bytes backing the tree's heap.
func (t *Tree) HeapByteSize() int {
	return heapByteSize(t.maxDepth)
}

// GetHeap returns a copy of the tree's raw heap bytes, little-endian
// per word. Safe to retain; mutating the returned slice does not
// affect the tree.
func (t *Tree) GetHeap() []byte {
	buf := make([]byte, t.HeapByteSize())
	for i, word := range t.heap {
		binary.LittleEndian.PutUint32(buf[i*4:], word)
	}
	return buf
}

// SetHeap overwrites the tree's heap from a raw byte buffer previously
// produced by GetHeap on a tree of the same max depth.
//
// Precondition: len(buf) == t.HeapByteSize().
func (t *Tree) SetHeap(buf []byte) {
	assertf(len(buf) == t.HeapByteSize(), "SetHeap: buffer length %d, want %d", len(buf), t.HeapByteSize())

	for i := range t.heap {
		t.heap[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	t.log.Debug().Int("bytes", len(buf)).Msg("set heap")
}
