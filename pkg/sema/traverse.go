package sema

import "github.com/cminus-lang/cminusc/pkg/tree"

// walkList visits every node in the sibling list starting at 'head',
// calling pre before descending into a node's children and post after.
// walkNode recurses into each of a node's (up to 3) children via walkList,
// so a child slot transparently doubles as either "one optional node" or
// "a list of siblings" depending on what the parser actually linked there
// (spec.md §9: "Generic tree traversal is realized with pre-action and
// post-action callbacks").
func walkList(a *tree.Arena, head tree.NodeID, pre, post func(tree.NodeID)) {
	for id := head; id != tree.NilNode; id = a.Get(id).Next {
		walkNode(a, id, pre, post)
	}
}

func walkNode(a *tree.Arena, id tree.NodeID, pre, post func(tree.NodeID)) {
	if id == tree.NilNode {
		return
	}

	pre(id)
	n := a.Get(id)
	for _, child := range n.Children {
		walkList(a, child, pre, post)
	}
	post(id)
}
