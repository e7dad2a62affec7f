package chunker

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codeintel/internal/lang"
	"codeintel/internal/parser"
)

// complexity scores a chunk's subtree: 1 + one per decision-introducing node
// + one per short-circuit boolean operator. A structural approximation of
// cyclomatic complexity; monotonic in the number of branches.
func complexity(node *tree_sitter.Node, spec *lang.LanguageSpec, source []byte) int {
	branching := toSet(spec.BranchingNodeTypes)
	boolean := toSet(spec.BooleanNodeTypes)

	score := 1
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		kind := n.Kind()
		if branching[kind] {
			score++
		}
		if boolean[kind] && isShortCircuit(n, source) {
			score++
		}
		return true
	})
	return score
}

// isShortCircuit reports whether a binary/boolean expression node uses a
// short-circuit operator. Grammars without an operator field (Python's
// boolean_operator is always and/or) count unconditionally.
func isShortCircuit(node *tree_sitter.Node, source []byte) bool {
	op := node.ChildByFieldName("operator")
	if op == nil {
		return node.Kind() == "boolean_operator"
	}
	switch parser.NodeText(op, source) {
	case "&&", "||", "and", "or":
		return true
	}
	return false
}
