package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pagelift/pagelift/internal/domain"
)

// The service is supposed to emit strings in cells and list items but often
// emits numbers, nulls or nested scalars. The raw* types absorb that: every
// scalar is coerced to a string, nulls become empty strings, and rows that
// are not arrays are dropped.

// flexString is a JSON value coerced to a string.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = flexString(stringify(v))
	return nil
}

// flexRow is a JSON array of values coerced to strings. Non-array values
// fail to decode and the containing row is dropped by the caller.
type flexRow []string

func (r *flexRow) UnmarshalJSON(data []byte) error {
	var vals []interface{}
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	row := make([]string, 0, len(vals))
	for _, v := range vals {
		row = append(row, stringify(v))
	}
	*r = row
	return nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// Avoid the %v exponent form for integral values.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// rawNode is one content node as the service emits it.
type rawNode struct {
	Type  string            `json:"type"`
	Text  flexString        `json:"text"`
	Items []flexString      `json:"items"`
	Rows  []json.RawMessage `json:"rows"`
}

// node converts a raw node to a domain node, reporting whether it is usable.
func (rn rawNode) node() (domain.Node, bool) {
	nodeType := domain.NodeType(strings.ToLower(strings.TrimSpace(rn.Type)))
	switch nodeType {
	case domain.NodeH1, domain.NodeH2, domain.NodeH3, domain.NodeParagraph:
		text := string(rn.Text)
		if strings.TrimSpace(text) == "" {
			return domain.Node{}, false
		}
		return domain.Node{Type: nodeType, Text: text}, true
	case domain.NodeList:
		items := make([]string, 0, len(rn.Items))
		for _, it := range rn.Items {
			if s := string(it); s != "" {
				items = append(items, s)
			}
		}
		if len(items) == 0 {
			return domain.Node{}, false
		}
		return domain.Node{Type: domain.NodeList, Items: items}, true
	case domain.NodeTable:
		rows := decodeRows(rn.Rows)
		if len(rows) == 0 {
			return domain.Node{}, false
		}
		return domain.Node{Type: domain.NodeTable, Rows: rows}, true
	case "":
		return domain.Node{}, false
	default:
		// Unknown node types degrade to paragraphs so no recognized text
		// is silently lost.
		text := string(rn.Text)
		if strings.TrimSpace(text) == "" {
			return domain.Node{}, false
		}
		return domain.Node{Type: domain.NodeParagraph, Text: text}, true
	}
}

// rawTable is one table as the service emits it in table mode.
type rawTable struct {
	Name string            `json:"name"`
	Rows []json.RawMessage `json:"rows"`
}

func (rt rawTable) rows() [][]string {
	return decodeRows(rt.Rows)
}

// decodeRows decodes each row leniently, skipping rows that are not arrays.
func decodeRows(raw []json.RawMessage) [][]string {
	var rows [][]string
	for _, rr := range raw {
		var row flexRow
		if err := json.Unmarshal(rr, &row); err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func tableName(idx int) string {
	return fmt.Sprintf("Table %d", idx+1)
}
