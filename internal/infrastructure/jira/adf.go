package jira

import "strings"

// ADFNode is a node of an Atlassian Document Format document
type ADFNode struct {
	Type    string         `json:"type"`
	Version int            `json:"version,omitempty"`
	Content []ADFNode      `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []ADFMark      `json:"marks,omitempty"`
}

// ADFMark is an inline formatting mark
type ADFMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// PlainTextDocument wraps text into a document holding a single paragraph.
// Returns nil for empty text because ADF forbids empty text nodes.
func PlainTextDocument(text string) *ADFNode {
	if text == "" {
		return nil
	}
	return &ADFNode{
		Type:    "doc",
		Version: 1,
		Content: []ADFNode{{
			Type:    "paragraph",
			Content: []ADFNode{{Type: "text", Text: text}},
		}},
	}
}

// blockTypes end with a line break when flattened
var blockTypes = map[string]bool{
	"paragraph":  true,
	"heading":    true,
	"codeBlock":  true,
	"blockquote": true,
	"listItem":   true,
	"rule":       true,
	"panel":      true,
	"tableRow":   true,
}

// PlainText flattens a document to plain text. Block nodes are separated by newlines.
func PlainText(doc *ADFNode) string {
	if doc == nil {
		return ""
	}
	var b strings.Builder
	writePlainText(&b, *doc)
	return strings.TrimRight(b.String(), "\n")
}

func writePlainText(b *strings.Builder, node ADFNode) {
	switch node.Type {
	case "text":
		b.WriteString(node.Text)
		return
	case "hardBreak":
		b.WriteString("\n")
		return
	case "mention", "emoji", "status", "inlineCard":
		if text, ok := node.Attrs["text"].(string); ok {
			b.WriteString(text)
		} else if url, ok := node.Attrs["url"].(string); ok {
			b.WriteString(url)
		}
		return
	}

	for _, child := range node.Content {
		writePlainText(b, child)
	}
	if blockTypes[node.Type] && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
}
