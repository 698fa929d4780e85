package parse

import "strings"

// RepairRows normalizes every row to the column count of the first row:
// short rows are padded with empty cells, long rows are truncated. Repair is
// idempotent and must run before a table leaves the parser.
func RepairRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	width := len(rows[0])
	if width == 0 {
		return nil
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		fixed := make([]string, width)
		copy(fixed, row)
		out = append(out, fixed)
	}
	return out
}

// markdownTable extracts pipe-delimited table rows from raw text, dropping
// markdown separator lines such as |---|:--:|.
func markdownTable(raw string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		trimmed := strings.Trim(line, "|")
		parts := strings.Split(trimmed, "|")
		row := make([]string, 0, len(parts))
		for _, p := range parts {
			row = append(row, strings.TrimSpace(p))
		}
		if isSeparatorRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func isSeparatorRow(row []string) bool {
	for _, cell := range row {
		if cell == "" {
			return false
		}
		if strings.Trim(cell, "-:") != "" {
			return false
		}
	}
	return true
}

// csvTable attempts a naive comma-delimited parse. It applies only when the
// first non-blank line contains a comma, matching the loosest fallback the
// table mode supports.
func csvTable(raw string) [][]string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 || !strings.Contains(lines[0], ",") {
		return nil
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}
