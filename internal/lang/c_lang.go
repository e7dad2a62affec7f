package lang

func init() {
	Register(&LanguageSpec{
		Language:          C,
		FileExtensions:    []string{".c", ".h"},
		FunctionNodeTypes: []string{"function_definition"},
		ExtraChunkNodeTypes: []string{
			"struct_specifier",
			"enum_specifier",
		},
		ModuleNodeTypes: []string{"translation_unit"},

		Docstring: DocstringPrecedingComment,

		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "while_statement",
			"do_statement", "case_statement", "conditional_expression",
		},
		BooleanNodeTypes: []string{"binary_expression"},

		CallNodeTypes:   []string{"call_expression"},
		ImportNodeTypes: []string{"preproc_include"},
	})
}
