package wgsl

import "fmt"

// namer generates unique identifiers for WGSL output.
type namer struct {
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer() *namer {
	return &namer{usedNames: make(map[string]struct{})}
}

// call returns an unused identifier derived from base.
func (n *namer) call(base string) string {
	if base == "" {
		base = "unnamed"
	}
	escaped := Escape(base)
	if _, used := n.usedNames[escaped]; !used {
		n.usedNames[escaped] = struct{}{}
		return escaped
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if _, used := n.usedNames[candidate]; !used {
			n.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}
