package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/domain"
)

func TestContent_StrictJSON(t *testing.T) {
	raw := `{"status":"success","content":[{"type":"h1","text":"Title"},{"type":"paragraph","text":"Body"}]}`

	batch := Content(raw)
	require.Len(t, batch, 2)
	assert.Equal(t, domain.NodeH1, batch[0].Type)
	assert.Equal(t, "Title", batch[0].Text)
	assert.Equal(t, domain.NodeParagraph, batch[1].Type)
	assert.Equal(t, "Body", batch[1].Text)
}

func TestContent_FencedJSON(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"status\":\"success\",\"content\":[{\"type\":\"paragraph\",\"text\":\"hello\"}]}\n```\nDone."

	batch := Content(raw)
	require.Len(t, batch, 1)
	assert.Equal(t, domain.NodeParagraph, batch[0].Type)
	assert.Equal(t, "hello", batch[0].Text)
}

func TestContent_BareFence(t *testing.T) {
	raw := "```\n{\"content\":[{\"type\":\"h2\",\"text\":\"Section\"}]}\n```"

	batch := Content(raw)
	require.Len(t, batch, 1)
	assert.Equal(t, domain.NodeH2, batch[0].Type)
}

func TestContent_BraceSalvage(t *testing.T) {
	raw := `The model says: {"content":[{"type":"paragraph","text":"salvaged"}]} end of response`

	batch := Content(raw)
	require.Len(t, batch, 1)
	assert.Equal(t, "salvaged", batch[0].Text)
}

func TestContent_RepairedJSON(t *testing.T) {
	// Trailing comma: invalid JSON that jsonrepair can fix.
	raw := `{"content":[{"type":"paragraph","text":"fixed"},]}`

	batch := Content(raw)
	require.Len(t, batch, 1)
	assert.Equal(t, "fixed", batch[0].Text)
}

func TestContent_LineFallback(t *testing.T) {
	raw := "First line\n\n  Second line  \nThird"

	batch := Content(raw)
	require.Len(t, batch, 3)
	for _, node := range batch {
		assert.Equal(t, domain.NodeParagraph, node.Type)
	}
	assert.Equal(t, "Second line", batch[1].Text)
}

func TestContent_ExplicitlyEmpty(t *testing.T) {
	batch := Content(`{"status":"no_text","content":[]}`)
	assert.Empty(t, batch)
}

func TestContent_BlankInput(t *testing.T) {
	assert.Empty(t, Content(""))
	assert.Empty(t, Content("  \n\t\n"))
}

func TestContent_UnknownNodeTypeBecomesParagraph(t *testing.T) {
	raw := `{"content":[{"type":"quote","text":"something"}]}`

	batch := Content(raw)
	require.Len(t, batch, 1)
	assert.Equal(t, domain.NodeParagraph, batch[0].Type)
	assert.Equal(t, "something", batch[0].Text)
}

func TestContent_TableNodeRowsRepaired(t *testing.T) {
	raw := `{"content":[{"type":"table","rows":[["a","b","c"],["1","2"]]}]}`

	batch := Content(raw)
	require.Len(t, batch, 1)
	require.Equal(t, domain.NodeTable, batch[0].Type)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2", ""}}, batch[0].Rows)
}

func TestContent_NumericCellsCoerced(t *testing.T) {
	raw := `{"content":[{"type":"table","rows":[["qty","price"],[3,12.5]]}]}`

	batch := Content(raw)
	require.Len(t, batch, 1)
	assert.Equal(t, [][]string{{"qty", "price"}, {"3", "12.5"}}, batch[0].Rows)
}

func TestTables_StrictJSON(t *testing.T) {
	raw := `{"status":"success","tables":[{"name":"Revenue","rows":[["Q1","Q2"],["10","20"]]}]}`

	tables := Tables(raw)
	require.Len(t, tables, 1)
	assert.Equal(t, "Revenue", tables[0].Name)
	assert.Equal(t, [][]string{{"Q1", "Q2"}, {"10", "20"}}, tables[0].Rows)
}

func TestTables_UnnamedGetsDefaultName(t *testing.T) {
	raw := `{"tables":[{"rows":[["a"],["b"]]}]}`

	tables := Tables(raw)
	require.Len(t, tables, 1)
	assert.Equal(t, "Table 1", tables[0].Name)
}

func TestTables_MarkdownFallback(t *testing.T) {
	raw := "Some preamble\n| Name | Age |\n| --- | --- |\n| Alice | 30 |\n| Bob | 25 |"

	tables := Tables(raw)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{
		{"Name", "Age"},
		{"Alice", "30"},
		{"Bob", "25"},
	}, tables[0].Rows)
}

func TestTables_CSVFallback(t *testing.T) {
	raw := "name,age\nAlice,30\nBob,25"

	tables := Tables(raw)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{
		{"name", "age"},
		{"Alice", "30"},
		{"Bob", "25"},
	}, tables[0].Rows)
}

func TestTables_NothingRecognized(t *testing.T) {
	assert.Nil(t, Tables("no tabular data here at all"))
	assert.Nil(t, Tables(""))
}

func TestTables_ExplicitlyEmpty(t *testing.T) {
	assert.Empty(t, Tables(`{"status":"no_table","tables":[]}`))
}

func TestTables_EmptyRowsDropped(t *testing.T) {
	raw := `{"tables":[{"name":"Empty","rows":[]},{"name":"Real","rows":[["x"]]}]}`

	tables := Tables(raw)
	require.Len(t, tables, 1)
	assert.Equal(t, "Real", tables[0].Name)
}
