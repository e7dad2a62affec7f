package lang

func init() {
	Register(&LanguageSpec{
		Language:       Go,
		FileExtensions: []string{".go"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"method_declaration",
		},
		ExtraChunkNodeTypes: []string{"type_declaration"},
		ModuleNodeTypes:     []string{"source_file"},

		ReturnTypeField: "result",

		Docstring: DocstringPrecedingComment,

		BranchingNodeTypes: []string{
			"if_statement", "for_statement",
			"expression_case", "type_case", "communication_case",
		},
		BooleanNodeTypes: []string{"binary_expression"},

		CallNodeTypes:   []string{"call_expression"},
		ImportNodeTypes: []string{"import_declaration"},

		RelatedTestPatterns: []string{"{stem}_test.go"},
	})
}
