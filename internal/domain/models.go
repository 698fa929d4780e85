// Package domain holds the shared types of the extraction pipeline.
package domain

// ExtractMode selects what the extraction service is asked to recognize.
type ExtractMode string

const (
	// ModeText extracts the full document structure (headings, paragraphs,
	// lists, tables) and produces a text document.
	ModeText ExtractMode = "text"
	// ModeTable extracts only tabular data and produces a spreadsheet.
	ModeTable ExtractMode = "table"
)

// SourceMode selects which images are taken from a PDF.
type SourceMode string

const (
	SourceBoth     SourceMode = "both"
	SourceEmbedded SourceMode = "embedded"
	SourcePage     SourceMode = "page"
)

// WorkItem is one image submitted for extraction. Index is its position in
// the original submission order and the sole ordering key for output
// assembly; it never changes once the item is enqueued.
type WorkItem struct {
	Index int
	Name  string
	Path  string
}

// Usage holds best-effort token counters reported by the extraction service.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Add accumulates another usage delta into u.
func (u *Usage) Add(d Usage) {
	u.Prompt += d.Prompt
	u.Completion += d.Completion
	u.Total += d.Total
}

// NodeType identifies one structural unit of recognized content.
type NodeType string

const (
	NodeH1        NodeType = "h1"
	NodeH2        NodeType = "h2"
	NodeH3        NodeType = "h3"
	NodeParagraph NodeType = "paragraph"
	NodeList      NodeType = "list"
	NodeTable     NodeType = "table"
)

// Node is one unit of recognized document content. Exactly one of Text,
// Items or Rows is meaningful depending on Type. For a table node every row
// has the same length as the first row by the time it leaves the parser.
type Node struct {
	Type  NodeType   `json:"type"`
	Text  string     `json:"text,omitempty"`
	Items []string   `json:"items,omitempty"`
	Rows  [][]string `json:"rows,omitempty"`
}

// HeadingLevel returns 1-3 for heading nodes and 0 otherwise.
func (n Node) HeadingLevel() int {
	switch n.Type {
	case NodeH1:
		return 1
	case NodeH2:
		return 2
	case NodeH3:
		return 3
	}
	return 0
}

// ContentBatch is the ordered content recognized from one work item. It may
// be empty, which signals that nothing was recognized.
type ContentBatch []Node

// Table is one named table recognized in table mode.
type Table struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Sentinel failure reasons for responses that carried no usable result.
// These are visible in diagnostics but do not count as systemic faults.
const (
	ReasonNoContent = "no_content"
	ReasonNoTables  = "no_tables"
)

// Outcome is the result of running one work item through the extraction
// service. A non-empty Reason marks a failure; otherwise Content (text mode)
// or Tables (table mode) holds the recognized structure.
type Outcome struct {
	Content ContentBatch
	Tables  []Table
	Usage   Usage
	Reason  string
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool { return o.Reason != "" }

// Failure builds a failed outcome, keeping any usage already consumed.
func Failure(reason string, usage Usage) Outcome {
	return Outcome{Reason: reason, Usage: usage}
}

// ItemResult pairs a work item with its outcome. The pipeline emits these in
// completion order.
type ItemResult struct {
	Item    WorkItem
	Outcome Outcome
}
