// Package parse turns raw extraction-service responses into validated
// structured content. The service is asked for strict JSON but rarely
// guarantees it, so parsing walks a chain of progressively looser
// strategies and the first one that yields structure wins.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/pagelift/pagelift/internal/domain"
)

var (
	fenceJSONRe = regexp.MustCompile("(?is)```json\\s*(.*?)```")
	fenceAnyRe  = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// contentPayload is the expected text-mode envelope.
type contentPayload struct {
	Status  string    `json:"status"`
	Content []rawNode `json:"content"`
}

// tablesPayload is the expected table-mode envelope.
type tablesPayload struct {
	Status string     `json:"status"`
	Tables []rawTable `json:"tables"`
}

// Content parses a text-mode response into a content batch. For any
// non-blank input it returns at least one node: when every structured
// strategy fails, each non-blank line becomes a paragraph. A nil result
// therefore means the input itself was blank, or the service explicitly
// reported an empty document.
func Content(raw string) domain.ContentBatch {
	for _, candidate := range candidates(raw) {
		var p contentPayload
		ok, hasKey := decodeWithKey(candidate, &p, "content")
		if ok && hasKey {
			return normalizeNodes(p.Content)
		}
	}

	// Last resort: one paragraph per non-blank line.
	var batch domain.ContentBatch
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		batch = append(batch, domain.Node{Type: domain.NodeParagraph, Text: line})
	}
	return batch
}

// Tables parses a table-mode response into a table list. An empty result is
// not an error: it means no tables were recognized by any strategy.
func Tables(raw string) []domain.Table {
	for _, candidate := range candidates(raw) {
		var p tablesPayload
		ok, hasKey := decodeWithKey(candidate, &p, "tables")
		if ok && hasKey {
			return normalizeTables(p.Tables)
		}
	}

	if rows := markdownTable(raw); len(rows) > 0 {
		return []domain.Table{{Name: "Table 1", Rows: RepairRows(rows)}}
	}
	if rows := csvTable(raw); len(rows) > 0 {
		return []domain.Table{{Name: "Table 1", Rows: RepairRows(rows)}}
	}
	return nil
}

// candidates yields payload candidates in decreasing order of trust: the
// whole text, each fenced code block, then the first top-level object-like
// substring.
func candidates(raw string) []string {
	out := []string{raw}

	matches := fenceJSONRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		matches = fenceAnyRe.FindAllStringSubmatch(raw, -1)
	}
	for _, m := range matches {
		out = append(out, m[1])
	}

	if start := strings.Index(raw, "{"); start != -1 {
		if end := strings.LastIndex(raw, "}"); end > start {
			out = append(out, raw[start:end+1])
		}
	}
	return out
}

// decodeWithKey unmarshals candidate into v, falling back to jsonrepair for
// the malformed JSON the service tends to produce (trailing commas, single
// quotes, unquoted keys). It reports whether decoding succeeded and whether
// the payload carried the expected top-level key.
func decodeWithKey(candidate string, v interface{}, key string) (ok, hasKey bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, false
	}

	data := candidate
	if err := json.Unmarshal([]byte(data), v); err != nil {
		repaired, repErr := jsonrepair.JSONRepair(candidate)
		if repErr != nil {
			return false, false
		}
		if err := json.Unmarshal([]byte(repaired), v); err != nil {
			return false, false
		}
		data = repaired
	}

	// Decoding into the typed payload succeeds for any JSON object; accept
	// only payloads that actually carry the expected field.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &probe); err != nil {
		return false, false
	}
	_, hasKey = probe[key]
	return true, hasKey
}

func normalizeNodes(nodes []rawNode) domain.ContentBatch {
	var batch domain.ContentBatch
	for _, rn := range nodes {
		node, ok := rn.node()
		if !ok {
			continue
		}
		if node.Type == domain.NodeTable {
			node.Rows = RepairRows(node.Rows)
			if len(node.Rows) == 0 {
				continue
			}
		}
		batch = append(batch, node)
	}
	return batch
}

func normalizeTables(tables []rawTable) []domain.Table {
	var out []domain.Table
	for i, rt := range tables {
		rows := RepairRows(rt.rows())
		if len(rows) == 0 {
			continue
		}
		name := strings.TrimSpace(rt.Name)
		if name == "" {
			name = tableName(i)
		}
		out = append(out, domain.Table{Name: name, Rows: rows})
	}
	return out
}
