package lang

func init() {
	Register(&LanguageSpec{
		Language:       Dart,
		FileExtensions: []string{".dart"},
		FunctionNodeTypes: []string{
			"function_signature", // top-level function: return_type name(params)
			"method_signature",   // class method: wraps function_signature
		},
		ClassNodeTypes: []string{
			"class_definition",
			"enum_declaration",
			"mixin_declaration",
		},
		// Top-level variable declarations are chunks only at file scope.
		TopLevelOnlyNodeTypes: []string{"declaration"},
		ModuleNodeTypes:       []string{"program"},

		// The grammar splits a declaration into a signature node and a
		// sibling function_body; the chunk must span both.
		MergeBodySibling: true,
		BodySiblingType:  "function_body",

		ParamsField:     "parameters",
		ReturnTypeField: "type",

		Docstring:    DocstringPrecedingComment,
		NameStrategy: NameFallbackNestedSignature,

		DecoratorNodeTypes: []string{"annotation", "marker_annotation"},

		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "while_statement",
			"switch_statement", "catch_clause", "conditional_expression",
		},

		CallNodeTypes:   []string{"selector"},
		ImportNodeTypes: []string{"import_or_export"},

		RelatedTestPatterns: []string{"{stem}_test.dart"},
	})
}
