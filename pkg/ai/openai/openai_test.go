package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStreamFrame(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		content string
		done    bool
		emit    bool
	}{
		{
			name: "blank line",
			line: "   ",
		},
		{
			name: "bare data prefix",
			line: "data:",
		},
		{
			name: "done sentinel",
			line: "data: [DONE]",
			done: true,
		},
		{
			name:    "content delta",
			line:    `data: {"choices":[{"delta":{"content":"Cao"}}]}`,
			content: "Cao",
			emit:    true,
		},
		{
			name: "empty delta",
			line: `data: {"choices":[{"delta":{}}]}`,
		},
		{
			name: "no choices",
			line: `data: {"choices":[]}`,
		},
		{
			name:    "unparseable frame forwarded raw",
			line:    "data: not-json-at-all",
			content: "not-json-at-all",
			emit:    true,
		},
		{
			name:    "line without prefix",
			line:    `{"choices":[{"delta":{"content":"hi"}}]}`,
			content: "hi",
			emit:    true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			content, done, emit := ParseStreamFrame(c.line)
			assert.Equal(t, c.content, content)
			assert.Equal(t, c.done, done)
			assert.Equal(t, c.emit, emit)
		})
	}
}
