package input

import (
	"github.com/ja-he/editgate/internal/control/action"
)

// Node is a node in a Tree.
// It can have child nodes or an action.
//
// NOTE:
//
//	must not have children if it has an action, and must not have an action if
//	it has children.
type Node struct {
	Children map[Key]*Node
	Action   action.Action
}

// Child returns the child node for the given Key.
// Returns nil, if there is no child node for the key.
func (n *Node) Child(k Key) *Node {
	return n.Children[k]
}

// NewNode returns a pointer to a new empty node Node with initialized children.
func NewNode() *Node {
	return &Node{
		Children: make(map[Key]*Node),
	}
}

// NewLeaf returns a pointer to a new action leaf Node without children.
func NewLeaf(action action.Action) *Node {
	return &Node{
		Action: action,
	}
}

// GetHelp returns the help for all sequences below this node, keyed by the
// sequence relative to this node.
func (n *Node) GetHelp() Help {
	result := Help{}
	if n.Action != nil {
		result[""] = n.Action.Explain()
		return result
	}
	for key, child := range n.Children {
		prefix := ToConfigIdentifierString(key)
		for sequence, explanation := range child.GetHelp() {
			result[prefix+sequence] = explanation
		}
	}
	return result
}

// Help maps key sequences to explanations of what they do.
type Help = map[Keyspec]string
