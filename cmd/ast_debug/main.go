// ast_debug prints tree-sitter parse trees for the node shapes the chunker
// depends on. Handy when a grammar update changes node kinds or field names.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codeintel/internal/lang"
	"codeintel/internal/parser"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := strings.Repeat("  ", indent)
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func dump(title string, language lang.Language, source []byte) {
	fmt.Printf("=== %s ===\n", title)
	tree, err := parser.Parse(language, source)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if tree != nil {
		printAST(tree.RootNode(), source, 0)
		tree.Close()
	}
	fmt.Println()
}

func main() {
	// A file argument dumps that file; no argument dumps the built-in samples.
	if len(os.Args) > 1 {
		path := os.Args[1]
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		language, ok := lang.LanguageForExtension(filepath.Ext(path))
		if !ok {
			fmt.Fprintf(os.Stderr, "no grammar for %s\n", path)
			os.Exit(1)
		}
		dump(path, language, source)
		return
	}

	// Dart signature + body sibling pair, the merge case.
	dump("DART SIGNATURE/BODY", lang.Dart,
		[]byte("String greet(String name) {\n  return 'hi $name';\n}\n"))

	// Dart call shapes: selector with argument_part.
	dump("DART CALLS", lang.Dart,
		[]byte("void main() {\n  var u = User();\n  u.save();\n  print(u);\n}\n"))

	// Python decorated function and module-scope assignment.
	dump("PYTHON DECORATED + ASSIGNMENT", lang.Python,
		[]byte("MAX_RETRIES = 3\n\n@app.route('/api')\ndef handler():\n    pass\n"))

	// JS arrow function bound to a declarator, the name fallback case.
	dump("JS ARROW DECLARATOR", lang.JavaScript,
		[]byte("const handler = async (req) => {\n  return new User(req);\n};\n"))

	// TSX element usage.
	dump("TSX ELEMENTS", lang.TSX,
		[]byte("const App = () => <Layout><Button label=\"ok\" /></Layout>;\n"))

	// Go declarations: function, method, type group.
	dump("GO DECLARATIONS", lang.Go,
		[]byte("package main\n\ntype Pair struct{ A, B int }\n\nfunc (p Pair) Sum() int { return p.A + p.B }\n"))
}
