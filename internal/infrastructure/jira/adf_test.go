package jira

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextDocument(t *testing.T) {
	assert.Nil(t, PlainTextDocument(""))

	doc := PlainTextDocument("hello\nworld")
	require.NotNil(t, doc)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "doc",
		"version": 1,
		"content": [{"type": "paragraph", "content": [{"type": "text", "text": "hello\nworld"}]}]
	}`, string(data))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{
			name:     "single paragraph",
			doc:      `{"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`,
			expected: "hi",
		},
		{
			name: "marks and hard breaks",
			doc: `{"type":"doc","content":[{"type":"paragraph","content":[
				{"type":"text","text":"bold","marks":[{"type":"strong"}]},
				{"type":"hardBreak"},
				{"type":"text","text":"next"}]}]}`,
			expected: "bold\nnext",
		},
		{
			name: "lists and mentions",
			doc: `{"type":"doc","content":[
				{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Title"}]},
				{"type":"bulletList","content":[
					{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"one"}]}]},
					{"type":"listItem","content":[{"type":"paragraph","content":[
						{"type":"mention","attrs":{"id":"1","text":"@Dana"}}]}]}]}]}`,
			expected: "Title\none\n@Dana",
		},
		{
			name:     "empty document",
			doc:      `{"type":"doc","content":[]}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc ADFNode
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &doc))
			assert.Equal(t, tt.expected, PlainText(&doc))
		})
	}

	assert.Equal(t, "", PlainText(nil))
}

func TestPlainText_RoundTrip(t *testing.T) {
	assert.Equal(t, "Value: 500", PlainText(PlainTextDocument("Value: 500")))
}
