package chunker

import (
	"regexp"
	"strings"

	"codeintel/internal/lang"
	"codeintel/internal/model"
)

var (
	mermaidFenceRe = regexp.MustCompile("(?s)```mermaid\\s*\\n(.*?)```")
	// Node labels like A[Start], B{Decision}, C(Process).
	diagramLabelRe = regexp.MustCompile(`\w+\s*[\[({]([^\])}]+)[\])}]`)
)

// markdownChunks extracts embedded mermaid diagram blocks as searchable
// pseudo-chunks; the node labels inside a diagram become its docstring so
// text search can find the diagram by what it describes. Files without
// diagrams fall back to a whole-file chunk in the caller.
func markdownChunks(filename string, source []byte) []*model.CodeChunk {
	content := string(source)

	var chunks []*model.CodeChunk
	for _, loc := range mermaidFenceRe.FindAllStringSubmatchIndex(content, -1) {
		block := content[loc[0]:loc[1]]
		body := content[loc[2]:loc[3]]

		startLine := strings.Count(content[:loc[0]], "\n") + 1
		endLine := startLine + strings.Count(block, "\n")

		var labels []string
		for _, m := range diagramLabelRe.FindAllStringSubmatch(body, -1) {
			labels = append(labels, strings.TrimSpace(m[1]))
		}

		name := ""
		if lines := strings.SplitN(strings.TrimSpace(body), "\n", 2); len(lines) > 0 {
			name = strings.TrimSpace(lines[0])
		}

		chunks = append(chunks, &model.CodeChunk{
			Filename:   filename,
			StartLine:  startLine,
			EndLine:    endLine,
			Content:    block,
			Type:       "markdown_diagram",
			Language:   string(lang.Markdown),
			SymbolName: name,
			Docstring:  strings.Join(sortedUnique(labels), ", "),
		})
	}
	return chunks
}
