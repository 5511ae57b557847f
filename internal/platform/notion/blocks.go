package notion

import (
	"encoding/json"
	"unicode/utf8"
)

const (
	// MaxBlockText is the API's per-block rich text limit, in characters.
	MaxBlockText = 2000
	// MaxBlocksPerRequest is the most children a single create or append call accepts.
	MaxBlocksPerRequest = 100
)

type BlockType string

const (
	BlockParagraph    BlockType = "paragraph"
	BlockHeading1     BlockType = "heading_1"
	BlockHeading2     BlockType = "heading_2"
	BlockHeading3     BlockType = "heading_3"
	BlockBulletedItem BlockType = "bulleted_list_item"
	BlockNumberedItem BlockType = "numbered_list_item"
	BlockCode         BlockType = "code"
	BlockQuote        BlockType = "quote"
)

// Block is a single plain-text page block. Language is only sent for code blocks.
type Block struct {
	Type     BlockType
	Text     string
	Language string
}

type richText struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	rt := richText{Type: "text"}
	rt.Text.Content = b.Text
	body := map[string]any{"rich_text": []richText{rt}}
	if b.Type == BlockCode {
		lang := b.Language
		if lang == "" {
			lang = "plain text"
		}
		body["language"] = lang
	}
	return json.Marshal(map[string]any{
		"object":       "block",
		"type":         b.Type,
		string(b.Type): body,
	})
}

const ellipsis = "..."

// ValidateBlocks returns a copy of blocks with any text over MaxBlockText
// characters cut so that, with a trailing "...", it is exactly MaxBlockText.
func ValidateBlocks(blocks []Block) []Block {
	keep := MaxBlockText - utf8.RuneCountInString(ellipsis)
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		if utf8.RuneCountInString(b.Text) > MaxBlockText {
			b.Text = string([]rune(b.Text)[:keep]) + ellipsis
		}
		out[i] = b
	}
	return out
}

func chunkBlocks(blocks []Block, size int) [][]Block {
	if size <= 0 {
		size = MaxBlocksPerRequest
	}
	var out [][]Block
	for start := 0; start < len(blocks); start += size {
		end := start + size
		if end > len(blocks) {
			end = len(blocks)
		}
		out = append(out, blocks[start:end])
	}
	return out
}
