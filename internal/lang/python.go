package lang

func init() {
	Register(&LanguageSpec{
		Language:          Python,
		FileExtensions:    []string{".py"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes:    []string{"class_definition"},
		// Module-level constants: bare assignments are chunks only at file
		// scope, never inside a function or class body.
		TopLevelOnlyNodeTypes: []string{"assignment"},
		ModuleNodeTypes:       []string{"module"},

		Docstring:    DocstringBodyString,
		NameStrategy: NameFallbackAssignmentLeft,

		DecoratorNodeTypes:    []string{"decorator"},
		DecoratedWrapperTypes: []string{"decorated_definition"},

		BranchingNodeTypes: []string{
			"if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "case_clause", "conditional_expression",
		},
		BooleanNodeTypes: []string{"boolean_operator"},

		CallNodeTypes:   []string{"call"},
		ImportNodeTypes: []string{"import_statement", "import_from_statement"},

		RelatedTestPatterns: []string{"test_{stem}.py", "{stem}_test.py"},
	})
}
