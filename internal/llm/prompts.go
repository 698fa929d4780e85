package llm

// The prompts pin the service to a strict JSON contract. The parser still
// assumes the contract is broken more often than not.

const textPrompt = `Carefully recognize all printed text in the image and output strict JSON.

Applicable documents: slide decks, scanned books, textbooks, reports, tables.

Recognition requirements:
1. Recognize all printed text accurately and completely; keep the original wording.
2. Ignore watermarks, stamps, handwritten annotations and background decoration.
3. Infer the heading hierarchy from formatting: font size, bold weight, position,
   numbering style, indentation and paragraph structure.
4. For tables, recognize every row and column strictly: each row must have
   exactly as many cells as the header row, empty cells are "" and must not be
   omitted, and the first row of "rows" is the header.
5. Organize content in reading order: top to bottom, left to right.

Output JSON format:
{
  "status": "ok",
  "content": [
    {"type": "h1", "text": "top-level heading"},
    {"type": "h2", "text": "second-level heading"},
    {"type": "h3", "text": "third-level heading"},
    {"type": "paragraph", "text": "body paragraph, may be long"},
    {"type": "list", "items": ["item 1", "item 2"]},
    {"type": "table", "rows": [["H1","H2","H3"], ["a","b","c"]]}
  ]
}

Rules:
- Output ONLY the JSON, no other text, explanation or markdown markers.
- If the image has no recognizable text, output {"status":"no_text","content":[]}.
- Keep numbers, dates, units and punctuation exactly as printed.
- Keep long paragraphs whole; do not split them into multiple paragraph nodes.
- Include heading numbering inside the heading text.
- In every table node all rows must have identical column counts.`

const tablePrompt = `Extract every table from the image and output strict JSON in this format:
{
  "status": "ok",
  "tables": [ { "name": "Table 1", "rows": [["col1","col2"], ["..."]] } ]
}

Rules:
- Output ONLY the JSON, no other text or markers.
- If there are no tables, output {"status":"no_table","tables":[]}.
- Keep numbers, decimals, dates and units exactly as printed.
- Expand merged cells by their visual rows and columns.
- Every row must have the same number of cells as the header row; empty cells
  are "" and must not be omitted.`
