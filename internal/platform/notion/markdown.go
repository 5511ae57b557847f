package notion

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// FromMarkdown converts markdown into page blocks. Headings deeper than h3
// become h3, only the first paragraph of a list item or quote is kept, and
// inline markup is passed through as literal text.
func FromMarkdown(markdown string) []Block {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var blocks []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			blocks = append(blocks, Block{Type: headingType(node.Level), Text: linesText(node, source)})
		case *ast.Paragraph:
			if content := linesText(node, source); content != "" {
				blocks = append(blocks, Block{Type: BlockParagraph, Text: content})
			}
		case *ast.List:
			typ := BlockBulletedItem
			if node.IsOrdered() {
				typ = BlockNumberedItem
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if first := item.FirstChild(); first != nil {
					blocks = append(blocks, Block{Type: typ, Text: linesText(first, source)})
				}
			}
		case *ast.FencedCodeBlock:
			lang := "plain text"
			if l := strings.TrimSpace(string(node.Language(source))); l != "" {
				lang = l
			}
			blocks = append(blocks, Block{Type: BlockCode, Text: codeText(node, source), Language: lang})
		case *ast.CodeBlock:
			blocks = append(blocks, Block{Type: BlockCode, Text: codeText(node, source), Language: "plain text"})
		case *ast.Blockquote:
			if first := node.FirstChild(); first != nil {
				blocks = append(blocks, Block{Type: BlockQuote, Text: linesText(first, source)})
			}
		}
	}
	return blocks
}

func headingType(level int) BlockType {
	switch {
	case level <= 1:
		return BlockHeading1
	case level == 2:
		return BlockHeading2
	default:
		return BlockHeading3
	}
}

func linesText(n ast.Node, source []byte) string {
	lines := n.Lines()
	if lines == nil {
		return ""
	}
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(source)), "\r\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func codeText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimRight(b.String(), "\n")
}
