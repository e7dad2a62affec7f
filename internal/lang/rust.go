package lang

func init() {
	Register(&LanguageSpec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		FunctionNodeTypes: []string{"function_item"},
		ClassNodeTypes: []string{
			"impl_item",
			"trait_item",
		},
		ExtraChunkNodeTypes: []string{"struct_item", "enum_item", "macro_definition"},
		ModuleNodeTypes:     []string{"source_file"},

		Docstring: DocstringPrecedingComment,

		DecoratorNodeTypes: []string{"attribute_item"},

		BranchingNodeTypes: []string{
			"if_expression", "match_arm", "for_expression",
			"while_expression", "loop_expression",
		},
		BooleanNodeTypes: []string{"binary_expression"},

		CallNodeTypes:   []string{"call_expression", "macro_invocation"},
		ImportNodeTypes: []string{"use_declaration"},
	})
}
