package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/domain"
)

func renderMarkdown(t *testing.T, images []ImageContent) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(images, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(data)
}

func TestWriteMarkdown_RendersAllNodeTypes(t *testing.T) {
	got := renderMarkdown(t, []ImageContent{{
		Image: "page_001_full.png",
		Nodes: []domain.Node{
			{Type: domain.NodeH1, Text: "Report"},
			{Type: domain.NodeH2, Text: "Summary"},
			{Type: domain.NodeH3, Text: "Details"},
			{Type: domain.NodeParagraph, Text: "Some body text."},
			{Type: domain.NodeList, Items: []string{"first", "second"}},
			{Type: domain.NodeTable, Rows: [][]string{{"h1", "h2"}, {"a", "b"}}},
		},
	}})

	assert.Contains(t, got, "# Report\n")
	assert.Contains(t, got, "## Summary\n")
	assert.Contains(t, got, "### Details\n")
	assert.Contains(t, got, "Some body text.\n")
	assert.Contains(t, got, "- first\n- second\n")
	assert.Contains(t, got, "| h1 | h2 |\n| --- | --- |\n| a | b |\n")
}

func TestWriteMarkdown_PreservesImageOrder(t *testing.T) {
	got := renderMarkdown(t, []ImageContent{
		{Image: "a.png", Nodes: []domain.Node{{Type: domain.NodeParagraph, Text: "alpha"}}},
		{Image: "b.png", Nodes: []domain.Node{{Type: domain.NodeParagraph, Text: "beta"}}},
	})

	assert.Less(t, strings.Index(got, "alpha"), strings.Index(got, "beta"))
}

func TestWriteMarkdown_EscapesPipesInCells(t *testing.T) {
	got := renderMarkdown(t, []ImageContent{{
		Nodes: []domain.Node{
			{Type: domain.NodeTable, Rows: [][]string{{"a|b"}, {"c"}}},
		},
	}})

	assert.Contains(t, got, `a\|b`)
}

func TestWriteMarkdown_PlaceholderWhenEmpty(t *testing.T) {
	got := renderMarkdown(t, []ImageContent{{Image: "a.png"}})
	assert.Contains(t, got, "No text content was recognized")

	got = renderMarkdown(t, nil)
	assert.Contains(t, got, "No text content was recognized")
}

func TestWriteMarkdown_SkipsEmptyNodes(t *testing.T) {
	got := renderMarkdown(t, []ImageContent{{
		Nodes: []domain.Node{
			{Type: domain.NodeH1, Text: ""},
			{Type: domain.NodeParagraph, Text: "kept"},
			{Type: domain.NodeList},
		},
	}})

	assert.Equal(t, "kept\n\n", got)
}
