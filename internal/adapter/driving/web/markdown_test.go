package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_Descriptions(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:     "plain description",
			input:    "A blazing fast key-value store",
			contains: []string{"<p>A blazing fast key-value store</p>"},
		},
		{
			name:     "ampersand is escaped",
			input:    "Tools & scripts",
			contains: []string{"Tools &amp; scripts"},
		},
		{
			name:     "inline code",
			input:    "Drop-in `fmt.Println` replacement",
			contains: []string{"<code>fmt.Println</code>"},
		},
		{
			name:     "emphasis",
			input:    "**Fast** and _small_",
			contains: []string{"<strong>Fast</strong>", "<em>small</em>"},
		},
		{
			name:     "link",
			input:    "Docs at [example](https://example.com)",
			contains: []string{`<a href="https://example.com"`, "example</a>"},
		},
		{
			name:     "absolute links open in a new tab",
			input:    "[site](https://example.com)",
			contains: []string{`target="_blank"`, "nofollow", "noopener"},
		},
		{
			name:     "GFM autolink",
			input:    "See https://example.com/docs",
			contains: []string{`href="https://example.com/docs"`},
		},
		{
			name:        "script is stripped",
			input:       `Nice repo <script>alert("xss")</script>`,
			contains:    []string{"Nice repo"},
			notContains: []string{"<script>"},
		},
		{
			name:        "javascript link is stripped",
			input:       "[click](javascript:alert(1))",
			notContains: []string{"javascript:"},
		},
		{
			name:        "event handler attribute is stripped",
			input:       `<img src="x.png" onerror="alert(1)">`,
			notContains: []string{"onerror"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := RenderMarkdown(tc.input)
			for _, want := range tc.contains {
				assert.Contains(t, result, want)
			}
			for _, unwanted := range tc.notContains {
				assert.NotContains(t, result, unwanted)
			}
		})
	}
}
