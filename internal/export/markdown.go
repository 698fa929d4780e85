package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/pagelift/pagelift/internal/domain"
)

// ImageContent holds the structured content recognized in a single
// source image.
type ImageContent struct {
	Image string
	Nodes []domain.Node
}

const contentPlaceholder = `No text content was recognized.

Possible causes:

1. The run used the embedded source and the embedded images contain no text
2. The image quality is too low for the model to read

Suggestions:

- For native PDF documents set the source to page or both
- For scanned PDFs check the image quality or raise the DPI
`

// WriteMarkdown renders the structured content of every image into one
// Markdown document. Headings map to #/##/###, lists to bullets and
// tables to pipe tables. When nothing was recognized a placeholder
// document explains the likely causes.
func WriteMarkdown(images []ImageContent, outPath string) error {
	empty := true
	for _, img := range images {
		if len(img.Nodes) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return os.WriteFile(outPath, []byte(contentPlaceholder), 0644)
	}

	var b strings.Builder
	for _, img := range images {
		for _, node := range img.Nodes {
			renderNode(&b, node)
		}
	}

	return os.WriteFile(outPath, []byte(b.String()), 0644)
}

func renderNode(b *strings.Builder, node domain.Node) {
	switch node.Type {
	case domain.NodeH1, domain.NodeH2, domain.NodeH3:
		if node.Text == "" {
			return
		}
		fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", node.HeadingLevel()), node.Text)
	case domain.NodeList:
		if len(node.Items) == 0 {
			return
		}
		for _, item := range node.Items {
			if item != "" {
				fmt.Fprintf(b, "- %s\n", item)
			}
		}
		b.WriteString("\n")
	case domain.NodeTable:
		renderTable(b, node.Rows)
	default:
		if node.Text == "" {
			return
		}
		fmt.Fprintf(b, "%s\n\n", node.Text)
	}
}

// renderTable writes rows as a pipe table. The first row is treated as
// the header; rows are already rectangular by the time they get here.
func renderTable(b *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	writeRow := func(row []string) {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])
	b.WriteString("|")
	for range rows[0] {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	b.WriteString("\n")
}
