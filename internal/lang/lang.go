// Package lang defines per-language chunking profiles. Each profile declares
// the grammar node kinds and field names the chunker consumes, so language
// differences live in data here instead of in branches scattered through the
// traversal code.
package lang

// Language represents a supported programming language.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Dart       Language = "dart"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	CPP        Language = "cpp"
	C          Language = "c"

	// Pseudo-languages handled by dedicated extractors, not tree-sitter.
	Markdown       Language = "markdown"
	FirestoreRules Language = "firestore_rules"
	Text           Language = "text"
)

// AllLanguages returns all tree-sitter-backed languages.
func AllLanguages() []Language {
	return []Language{Python, JavaScript, TypeScript, TSX, Dart, Go, Rust, Java, CPP, C}
}

// DocstringStyle selects how documentation is extracted for a chunk.
type DocstringStyle int

const (
	// DocstringNone: the language has no docstring convention we extract.
	DocstringNone DocstringStyle = iota
	// DocstringBodyString is the Python convention: first string-literal
	// expression statement inside the definition body.
	DocstringBodyString
	// DocstringPrecedingComment takes the comment node(s) immediately
	// preceding the definition.
	DocstringPrecedingComment
)

// NameFallback selects a strategy for deriving a symbol name when the node
// carries no name field.
type NameFallback int

const (
	// NameFallbackNone: no fallback, the symbol name stays empty.
	NameFallbackNone NameFallback = iota
	// NameFallbackAssignmentLeft uses the left-hand side of an assignment
	// (Python module-level constants).
	NameFallbackAssignmentLeft
	// NameFallbackNestedSignature descends into a nested function_signature
	// child (Dart method_signature wraps function_signature).
	NameFallbackNestedSignature
	// NameFallbackParentDeclarator uses the name of the enclosing variable
	// declarator (arrow functions assigned to const/let).
	NameFallbackParentDeclarator
)

// LanguageSpec is the chunking profile for one language.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// FunctionNodeTypes are captured as chunks; their subtrees are not
	// searched for further structural chunks.
	FunctionNodeTypes []string
	// ClassNodeTypes are captured and recursed into with the class name as
	// ParentSymbol, so methods become their own chunks.
	ClassNodeTypes []string
	// ExtraChunkNodeTypes are captured and then recursed into without
	// changing ParentSymbol (Go type declarations, C structs, interfaces).
	ExtraChunkNodeTypes []string
	// TopLevelOnlyNodeTypes are captured only when directly at module scope;
	// nested occurrences are skipped.
	TopLevelOnlyNodeTypes []string
	// ModuleNodeTypes are the grammar kinds representing file scope.
	ModuleNodeTypes []string

	// MergeBodySibling covers split declarations where signature and body are
	// separate siblings (Dart): the chunk extends from the signature start to
	// the end of the next named sibling of BodySiblingType.
	MergeBodySibling bool
	BodySiblingType  string

	// Signature synthesis field names. Empty means the default
	// ("name", "parameters", "return_type").
	NameField       string
	ParamsField     string
	ReturnTypeField string

	Docstring    DocstringStyle
	NameStrategy NameFallback

	// DecoratorNodeTypes list decorator/annotation/attribute kinds appearing
	// as preceding named siblings of a definition.
	DecoratorNodeTypes []string
	// DecoratedWrapperTypes are wrapper kinds whose child is the actual
	// definition (Python decorated_definition). The chunk spans the wrapper
	// so decorator call expressions are scanned for usages too.
	DecoratedWrapperTypes []string

	// BranchingNodeTypes are counted toward the complexity score.
	BranchingNodeTypes []string
	// BooleanNodeTypes are binary/boolean expression kinds inspected for
	// short-circuit operators (&&, ||, and, or).
	BooleanNodeTypes []string

	// CallNodeTypes and InstantiationNodeTypes drive usage extraction.
	// CalleeField holds the callee subnode; empty means "function".
	CallNodeTypes          []string
	InstantiationNodeTypes []string
	CalleeField            string
	// JSXNodeTypes are element kinds whose component names count as usages.
	JSXNodeTypes []string

	ImportNodeTypes []string
	// CommonJSRequire additionally treats file-scope require("...") calls as
	// dependencies.
	CommonJSRequire bool

	// RelatedTestPatterns are candidate test filenames with a {stem}
	// placeholder, probed next to the file and under test directories.
	RelatedTestPatterns []string
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".py").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// NameFieldOrDefault returns the configured symbol-name field.
func (s *LanguageSpec) NameFieldOrDefault() string {
	if s.NameField == "" {
		return "name"
	}
	return s.NameField
}

// ParamsFieldOrDefault returns the configured parameter-list field.
func (s *LanguageSpec) ParamsFieldOrDefault() string {
	if s.ParamsField == "" {
		return "parameters"
	}
	return s.ParamsField
}

// ReturnTypeFieldOrDefault returns the configured return-type field.
func (s *LanguageSpec) ReturnTypeFieldOrDefault() string {
	if s.ReturnTypeField == "" {
		return "return_type"
	}
	return s.ReturnTypeField
}
