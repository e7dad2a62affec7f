package lang

func init() {
	Register(&LanguageSpec{
		Language:          CPP,
		FileExtensions:    []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes:    []string{"class_specifier"},
		ExtraChunkNodeTypes: []string{
			"struct_specifier",
			"enum_specifier",
		},
		ModuleNodeTypes: []string{"translation_unit"},

		Docstring: DocstringPrecedingComment,

		BranchingNodeTypes: []string{
			"if_statement", "for_statement", "while_statement",
			"do_statement", "case_statement", "catch_clause",
			"conditional_expression",
		},
		BooleanNodeTypes: []string{"binary_expression"},

		CallNodeTypes:          []string{"call_expression"},
		InstantiationNodeTypes: []string{"new_expression"},
		ImportNodeTypes:        []string{"preproc_include"},
	})
}
