package chunker

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codeintel/internal/lang"
	"codeintel/internal/parser"
)

// importTargets extracts the raw import strings from one import node. The
// strings stay exactly as written in source (dotted module names, quoted
// specifiers stripped of quotes); resolution happens later in the linker.
func importTargets(node *tree_sitter.Node, language lang.Language, source []byte) []string {
	switch language {
	case lang.Python:
		return pythonImportTargets(node, source)
	case lang.JavaScript, lang.TypeScript, lang.TSX:
		if src := node.ChildByFieldName("source"); src != nil {
			return []string{trimQuotes(parser.NodeText(src, source))}
		}
	case lang.Dart:
		// import_or_export wraps a configurable uri holding a string literal.
		if s := findStringLiteral(node); s != nil {
			return []string{trimQuotes(parser.NodeText(s, source))}
		}
	case lang.Go:
		return goImportTargets(node, source)
	case lang.Rust:
		if arg := node.ChildByFieldName("argument"); arg != nil {
			return []string{parser.NodeText(arg, source)}
		}
	case lang.Java:
		if node.NamedChildCount() > 0 {
			if child := node.NamedChild(0); child != nil {
				return []string{parser.NodeText(child, source)}
			}
		}
	case lang.CPP, lang.C:
		if path := node.ChildByFieldName("path"); path != nil {
			return []string{strings.Trim(parser.NodeText(path, source), "\"<>")}
		}
	}
	return nil
}

func pythonImportTargets(node *tree_sitter.Node, source []byte) []string {
	if node.Kind() == "import_from_statement" {
		// "from X import a, b": the dependency is X, dots included for
		// relative imports.
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			return []string{parser.NodeText(mod, source)}
		}
		return nil
	}
	// "import a.b, c as d"
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			out = append(out, parser.NodeText(child, source))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				out = append(out, parser.NodeText(name, source))
			}
		}
	}
	return out
}

func goImportTargets(node *tree_sitter.Node, source []byte) []string {
	var out []string
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if n.Kind() == "import_spec" {
			if path := n.ChildByFieldName("path"); path != nil {
				out = append(out, trimQuotes(parser.NodeText(path, source)))
			}
			return false
		}
		return true
	})
	return out
}

// requireTarget extracts the specifier of a CommonJS require("...") call, or
// "" when the call is not a require with a literal argument.
func requireTarget(node *tree_sitter.Node, source []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || parser.NodeText(fn, source) != "require" {
		return ""
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return ""
	}
	arg := args.NamedChild(0)
	if arg == nil || !strings.Contains(arg.Kind(), "string") {
		return ""
	}
	return trimQuotes(parser.NodeText(arg, source))
}

func findStringLiteral(node *tree_sitter.Node) *tree_sitter.Node {
	var found *tree_sitter.Node
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if strings.Contains(n.Kind(), "string") || n.Kind() == "uri" {
			found = n
			return false
		}
		return true
	})
	return found
}

func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
