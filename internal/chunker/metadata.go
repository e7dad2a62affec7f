package chunker

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codeintel/internal/lang"
	"codeintel/internal/parser"
)

// commentKinds covers the comment node names used across grammars.
var commentKinds = map[string]bool{
	"comment":               true,
	"line_comment":          true,
	"block_comment":         true,
	"documentation_comment": true,
}

// symbolName extracts the declared name of a definition node, applying the
// profile's fallback strategy when the grammar has no direct name field.
func symbolName(node *tree_sitter.Node, spec *lang.LanguageSpec, source []byte) string {
	if n := node.ChildByFieldName(spec.NameFieldOrDefault()); n != nil {
		return identifierText(n, source)
	}

	switch spec.NameStrategy {
	case lang.NameFallbackAssignmentLeft:
		if left := node.ChildByFieldName("left"); left != nil {
			return identifierText(left, source)
		}
	case lang.NameFallbackNestedSignature:
		// Dart method_signature wraps function_signature (or getter/setter).
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil || !strings.HasSuffix(child.Kind(), "_signature") {
				continue
			}
			if n := child.ChildByFieldName("name"); n != nil {
				return identifierText(n, source)
			}
			if id := firstChildOfKind(child, "identifier"); id != nil {
				return parser.NodeText(id, source)
			}
		}
		if id := firstChildOfKind(node, "identifier"); id != nil {
			return parser.NodeText(id, source)
		}
	case lang.NameFallbackParentDeclarator:
		if p := node.Parent(); p != nil && p.Kind() == "variable_declarator" {
			if n := p.ChildByFieldName("name"); n != nil {
				return parser.NodeText(n, source)
			}
		}
	}

	// C-family functions name the declarator, not the node itself.
	if d := node.ChildByFieldName("declarator"); d != nil {
		return identifierText(d, source)
	}
	// Go type_declaration wraps type_spec; take the first child with a name.
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if n := child.ChildByFieldName("name"); n != nil {
			return identifierText(n, source)
		}
	}
	return ""
}

// identifierText reduces a possibly compound declarator/pattern node to its
// identifier text.
func identifierText(node *tree_sitter.Node, source []byte) string {
	for {
		switch node.Kind() {
		case "identifier", "type_identifier", "field_identifier",
			"property_identifier", "pattern", "name":
			return parser.NodeText(node, source)
		}
		if d := node.ChildByFieldName("declarator"); d != nil {
			node = d
			continue
		}
		if id := firstChildOfKind(node, "identifier"); id != nil {
			return parser.NodeText(id, source)
		}
		return parser.NodeText(node, source)
	}
}

func firstChildOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// signature synthesizes "name (params) -> return_type" for function-like
// nodes. Non-function chunks get no signature.
func signature(node *tree_sitter.Node, name string, spec *lang.LanguageSpec, source []byte) string {
	isFunc := false
	for _, t := range spec.FunctionNodeTypes {
		if node.Kind() == t {
			isFunc = true
			break
		}
	}
	if !isFunc {
		return ""
	}

	// Dart method_signature: parameter and return-type fields live on the
	// nested function_signature node.
	target := node
	if spec.NameStrategy == lang.NameFallbackNestedSignature &&
		node.ChildByFieldName(spec.ParamsFieldOrDefault()) == nil {
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child != nil && strings.HasSuffix(child.Kind(), "_signature") {
				target = child
				break
			}
		}
	}

	var parts []string
	if name != "" {
		parts = append(parts, name)
	}
	if params := target.ChildByFieldName(spec.ParamsFieldOrDefault()); params != nil {
		parts = append(parts, parser.NodeText(params, source))
	}
	if rt := target.ChildByFieldName(spec.ReturnTypeFieldOrDefault()); rt != nil {
		parts = append(parts, "-> "+parser.NodeText(rt, source))
	}
	return strings.Join(parts, " ")
}

// docstring extracts documentation per the profile's strategy.
func docstring(node *tree_sitter.Node, spec *lang.LanguageSpec, source []byte) string {
	switch spec.Docstring {
	case lang.DocstringBodyString:
		body := node.ChildByFieldName("body")
		if body == nil || body.NamedChildCount() == 0 {
			return ""
		}
		first := body.NamedChild(0)
		if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
			return ""
		}
		str := first.NamedChild(0)
		if str == nil || str.Kind() != "string" {
			return ""
		}
		return strings.Trim(parser.NodeText(str, source), "\"' \n")
	case lang.DocstringPrecedingComment:
		prev := node.PrevNamedSibling()
		if prev == nil || !commentKinds[prev.Kind()] {
			return ""
		}
		return strings.Trim(parser.NodeText(prev, source), "/* \n")
	}
	return ""
}

// decorators collects the preceding decorator/annotation/attribute siblings
// in source order.
func decorators(node *tree_sitter.Node, spec *lang.LanguageSpec, source []byte) []string {
	if len(spec.DecoratorNodeTypes) == 0 {
		return nil
	}
	kinds := toSet(spec.DecoratorNodeTypes)
	var out []string
	for prev := node.PrevNamedSibling(); prev != nil && kinds[prev.Kind()]; prev = prev.PrevNamedSibling() {
		out = append([]string{parser.NodeText(prev, source)}, out...)
	}
	return out
}
