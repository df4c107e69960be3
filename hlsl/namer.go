// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"strings"
)

// namer generates unique identifiers for HLSL output.
// Uniqueness is case-insensitive: FXC treats some identifiers that differ
// only in case as the same symbol.
type namer struct {
	// usedNames holds generated names in lowercase.
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer() *namer {
	return &namer{usedNames: make(map[string]struct{})}
}

// call generates a unique name based on the given base.
// It escapes reserved keywords and adds numeric suffixes if needed.
func (n *namer) call(base string) string {
	return n.unique(Escape(base))
}

// callWithPrefix generates a unique name for prefix+base.
// The combined name is escaped and checked for uniqueness.
func (n *namer) callWithPrefix(prefix, base string) string {
	return n.unique(Escape(prefix + base))
}

func (n *namer) unique(escaped string) string {
	lower := strings.ToLower(escaped)
	if !n.isUsedLower(lower) {
		n.usedNames[lower] = struct{}{}
		return escaped
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		lower := strings.ToLower(candidate)
		if !n.isUsedLower(lower) {
			n.usedNames[lower] = struct{}{}
			return candidate
		}
	}
}

// isUsed checks if a name has already been used (case-insensitive).
func (n *namer) isUsed(name string) bool {
	return n.isUsedLower(strings.ToLower(name))
}

func (n *namer) isUsedLower(lowerName string) bool {
	_, used := n.usedNames[lowerName]
	return used
}
