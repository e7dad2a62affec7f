package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codeintel/internal/lang"
)

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse Go: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_declarations, got %d", funcCount)
	}
}

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, classCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
}

func TestParseDart(t *testing.T) {
	source := []byte(`class User {
  final String name;
  User(this.name);

  void save() {
    print(name);
  }
}

String greet(String name) {
  return 'Hello, $name';
}
`)
	tree, err := Parse(lang.Dart, source)
	if err != nil {
		t.Fatalf("Parse Dart: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var classCount, sigCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "class_definition":
			classCount++
		case "function_signature", "method_signature":
			sigCount++
		}
		return true
	})
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
	if sigCount == 0 {
		t.Error("expected at least one function/method signature")
	}
}

func TestParseTSX(t *testing.T) {
	source := []byte(`import { Avatar } from './avatar';

export function Profile({ user }) {
  return <Avatar user={user} />;
}
`)
	tree, err := Parse(lang.TSX, source)
	if err != nil {
		t.Fatalf("Parse TSX: %v", err)
	}
	defer tree.Close()

	var jsxCount int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "jsx_self_closing_element" {
			jsxCount++
		}
		return true
	})
	if jsxCount != 1 {
		t.Errorf("expected 1 jsx_self_closing_element, got %d", jsxCount)
	}
}

func TestAllLanguagesLoad(t *testing.T) {
	for _, l := range lang.AllLanguages() {
		_, err := GetLanguage(l)
		if err != nil {
			t.Errorf("GetLanguage(%s): %v", l, err)
		}
	}
}

func TestParseUnsupportedLanguage(t *testing.T) {
	_, err := Parse(lang.Language("cobol"), []byte("IDENTIFICATION DIVISION."))
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestNodeText(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				t.Error("function has no name node")
				return false
			}
			name := NodeText(nameNode, source)
			if name != "Hello" {
				t.Errorf("expected Hello, got %s", name)
			}
			return false
		}
		return true
	})
}
