// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package cbt

import (
	"strings"
	"testing"
)

func TestDumpString(t *testing.T) {
	tree := NewTreeAtDepth(MinMaxDepth, 1)
	tree.Split(tree.Decode(0))
	tree.computeSumReduction()

	out := tree.dumpString()

	if !strings.Contains(out, "node_count(3)") {
		t.Fatalf("dumpString() header missing node_count(3):\n%s", out)
	}
	if !strings.Contains(out, "[id:1 depth:0]") {
		t.Fatalf("dumpString() missing root line:\n%s", out)
	}

	var leaves int
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "count:1") {
			leaves++
		}
	}
	if uint64(leaves) != tree.NodeCount() {
		t.Fatalf("dumpString() printed %d leaf lines, want %d", leaves, tree.NodeCount())
	}
}
