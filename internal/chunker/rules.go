package chunker

import (
	"regexp"
	"strings"

	"codeintel/internal/lang"
	"codeintel/internal/model"
)

var matchBlockRe = regexp.MustCompile(`match\s+([^{]+)\s*\{`)

// firestoreChunks extracts `match /path/ { ... }` blocks from a security
// rules file by balanced-brace scanning. Nested match blocks each become
// their own chunk; the outer chunk's content contains the inner block text.
func firestoreChunks(filename string, source []byte) []*model.CodeChunk {
	content := string(source)

	var chunks []*model.CodeChunk
	for _, loc := range matchBlockRe.FindAllStringSubmatchIndex(content, -1) {
		start := loc[0]
		path := strings.TrimSpace(content[loc[2]:loc[3]])

		end := matchingBrace(content, start)
		if end < 0 {
			continue
		}
		block := content[start:end]
		startLine := strings.Count(content[:start], "\n") + 1
		endLine := startLine + strings.Count(block, "\n")

		chunks = append(chunks, &model.CodeChunk{
			Filename:   filename,
			StartLine:  startLine,
			EndLine:    endLine,
			Content:    block,
			Type:       "firestore_match",
			Language:   string(lang.FirestoreRules),
			SymbolName: path,
			Signature:  "match " + path,
		})
	}

	if len(chunks) == 0 && strings.TrimSpace(content) != "" {
		chunks = append(chunks, &model.CodeChunk{
			Filename:  filename,
			StartLine: 1,
			EndLine:   strings.Count(content, "\n") + 1,
			Content:   content,
			Type:      "firestore_file",
			Language:  string(lang.FirestoreRules),
		})
	}
	return chunks
}

// matchingBrace returns the index one past the brace that closes the first
// opening brace at or after start, or -1 when unbalanced.
func matchingBrace(content string, start int) int {
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
