package lang

func init() {
	Register(&LanguageSpec{
		Language:       TSX,
		FileExtensions: []string{".tsx"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"method_definition",
			"arrow_function",
		},
		ClassNodeTypes: []string{"class_declaration"},
		ExtraChunkNodeTypes: []string{
			"interface_declaration",
			"type_alias_declaration",
		},
		ModuleNodeTypes: []string{"program"},

		Docstring:    DocstringPrecedingComment,
		NameStrategy: NameFallbackParentDeclarator,

		DecoratorNodeTypes: []string{"decorator"},

		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_case",
			"catch_clause", "ternary_expression",
		},
		BooleanNodeTypes: []string{"binary_expression"},

		CallNodeTypes:          []string{"call_expression"},
		InstantiationNodeTypes: []string{"new_expression"},
		// Rendering a component counts as using it.
		JSXNodeTypes:    []string{"jsx_opening_element", "jsx_self_closing_element"},
		ImportNodeTypes: []string{"import_statement", "export_statement"},
		CommonJSRequire: true,

		RelatedTestPatterns: []string{"{stem}.test.tsx", "{stem}.spec.tsx"},
	})
}
