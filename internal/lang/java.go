package lang

func init() {
	Register(&LanguageSpec{
		Language:       Java,
		FileExtensions: []string{".java"},
		FunctionNodeTypes: []string{
			"method_declaration",
			"constructor_declaration",
		},
		ClassNodeTypes:      []string{"class_declaration"},
		ExtraChunkNodeTypes: []string{"interface_declaration", "enum_declaration", "record_declaration"},
		ModuleNodeTypes:     []string{"program"},

		ReturnTypeField: "type",

		Docstring: DocstringPrecedingComment,

		DecoratorNodeTypes: []string{"annotation", "marker_annotation"},

		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "enhanced_for_statement",
			"while_statement", "do_statement", "switch_block_statement_group",
			"catch_clause", "ternary_expression",
		},
		BooleanNodeTypes: []string{"binary_expression"},

		CallNodeTypes:          []string{"method_invocation"},
		InstantiationNodeTypes: []string{"object_creation_expression"},
		CalleeField:            "name",
		ImportNodeTypes:        []string{"import_declaration"},

		RelatedTestPatterns: []string{"{stem}Test.java"},
	})
}
