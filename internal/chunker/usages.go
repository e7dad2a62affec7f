package chunker

import (
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codeintel/internal/lang"
	"codeintel/internal/model"
	"codeintel/internal/parser"
)

// extractUsages scans a chunk's subtree for references to named symbols:
// call expressions, constructor/instantiation expressions, and JSX-like
// element usages. A language without usage configuration yields an empty
// list, never an error.
func extractUsages(root *tree_sitter.Node, spec *lang.LanguageSpec, source []byte) []model.SymbolUsage {
	if spec.Language == lang.Dart {
		return dartUsages(root, source)
	}

	callTypes := toSet(spec.CallNodeTypes)
	newTypes := toSet(spec.InstantiationNodeTypes)
	jsxTypes := toSet(spec.JSXNodeTypes)
	calleeField := spec.CalleeField
	if calleeField == "" {
		calleeField = "function"
	}

	var usages []model.SymbolUsage
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		kind := n.Kind()
		switch {
		case newTypes[kind]:
			if callee := instantiationTarget(n); callee != nil {
				usages = appendUsage(usages, callee, model.ContextInstantiation, source)
			}
		case callTypes[kind]:
			if callee := n.ChildByFieldName(calleeField); callee != nil {
				usages = appendUsage(usages, calleeName(callee, source), model.ContextCall, source)
			} else if kind == "macro_invocation" {
				if m := n.ChildByFieldName("macro"); m != nil {
					usages = appendUsage(usages, m, model.ContextCall, source)
				}
			}
		case jsxTypes[kind]:
			if name := n.ChildByFieldName("name"); name != nil && isComponentName(parser.NodeText(name, source)) {
				usages = appendUsage(usages, name, model.ContextInstantiation, source)
			}
		}
		return true
	})
	return usages
}

// appendUsage records a usage anchored at the callee node's position.
func appendUsage(usages []model.SymbolUsage, node *tree_sitter.Node, context string, source []byte) []model.SymbolUsage {
	name := parser.NodeText(node, source)
	if name == "" {
		return usages
	}
	return append(usages, model.SymbolUsage{
		Name:      name,
		Line:      int(node.StartPosition().Row) + 1,
		Character: int(node.StartPosition().Column),
		Context:   context,
	})
}

// calleeName reduces a callee expression to the node holding the symbol that
// is actually being invoked: the attribute of a.b(), the property of
// console.log(), the field of pkg.Fn().
func calleeName(callee *tree_sitter.Node, source []byte) *tree_sitter.Node {
	switch callee.Kind() {
	case "attribute":
		if n := callee.ChildByFieldName("attribute"); n != nil {
			return n
		}
	case "member_expression":
		if n := callee.ChildByFieldName("property"); n != nil {
			return n
		}
	case "selector_expression":
		if n := callee.ChildByFieldName("field"); n != nil {
			return n
		}
	case "scoped_identifier", "qualified_identifier":
		if n := callee.ChildByFieldName("name"); n != nil {
			return n
		}
	case "field_expression":
		if n := callee.ChildByFieldName("field"); n != nil {
			return n
		}
	}
	return callee
}

// instantiationTarget finds the constructed type of a new-expression across
// grammar variants (JS constructor field, Java/C++ type field).
func instantiationTarget(n *tree_sitter.Node) *tree_sitter.Node {
	for _, field := range []string{"constructor", "type", "name"} {
		if t := n.ChildByFieldName(field); t != nil {
			return t
		}
	}
	return nil
}

// isComponentName filters JSX elements to component usages; lowercase names
// are plain HTML tags.
func isComponentName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// dartUsages handles the Dart grammar's postfix call shape: an identifier (or
// a .method selector) followed by a selector holding the argument list.
func dartUsages(root *tree_sitter.Node, source []byte) []model.SymbolUsage {
	var usages []model.SymbolUsage
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "selector" || firstChildOfKind(n, "argument_part") == nil {
			return true
		}
		target := dartCallTarget(n)
		if target == nil {
			return true
		}
		name := parser.NodeText(target, source)
		if name == "" {
			return true
		}
		context := model.ContextCall
		if isComponentName(name) {
			// Dart constructors are invoked without a new keyword; an
			// uppercase callee is a constructor by convention.
			context = model.ContextInstantiation
		}
		usages = append(usages, model.SymbolUsage{
			Name:      name,
			Line:      int(target.StartPosition().Row) + 1,
			Character: int(target.StartPosition().Column),
			Context:   context,
		})
		return true
	})
	return usages
}

// dartCallTarget walks back from an argument selector to the identifier being
// invoked: `print(x)` has a plain identifier sibling, `user.save()` has a
// .save selector sibling wrapping the identifier.
func dartCallTarget(argSelector *tree_sitter.Node) *tree_sitter.Node {
	prev := argSelector.PrevNamedSibling()
	if prev == nil {
		return nil
	}
	switch prev.Kind() {
	case "identifier", "type_identifier":
		return prev
	case "selector":
		if id := findIdentifier(prev); id != nil {
			return id
		}
	}
	return nil
}

func findIdentifier(node *tree_sitter.Node) *tree_sitter.Node {
	var found *tree_sitter.Node
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == "identifier" {
			found = n
			return false
		}
		return true
	})
	return found
}
