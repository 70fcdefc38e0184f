package pgext

import (
	"fmt"
	"strings"
)

type node struct {
	label    string
	children []*node
}

// print writes n with box-drawing connectors, one line per node.
func (n *node) print(sb *strings.Builder, indent int, parentsOnLast int, isLast bool) {
	for j := 0; j < indent; j++ {
		if (indent - parentsOnLast) <= j {
			sb.WriteString("   ")
		} else {
			sb.WriteString("│  ")
		}
	}

	prefix := "├"
	if isLast {
		prefix = "└"
	}
	fmt.Fprintf(sb, "%s─ %s\n", prefix, n.label)

	newParentsOnLast := parentsOnLast
	if isLast {
		newParentsOnLast++
	}
	for i, child := range n.children {
		child.print(sb, indent+1, newParentsOnLast, i == len(n.children)-1)
	}
}
