package session

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// RunbookLanguage is the info string of code blocks holding commands.
const RunbookLanguage = "repocli"

// ExtractRunbook returns the commands of every fenced code block tagged
// RunbookLanguage, in document order. Block lines follow the batch file
// rules of ParseBatch.
func ExtractRunbook(source []byte) ([]string, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if string(block.Language(source)) != RunbookLanguage {
			return ast.WalkSkipChildren, nil
		}
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}
		buf.WriteByte('\n')
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return ParseBatch(&buf)
}
