// Package export renders report tables into downloadable documents.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Column is one rendered column; Key addresses the row map.
type Column struct {
	Key   string
	Label string
}

// Table is tabular export content.
type Table struct {
	Title    string
	Subtitle string
	Columns  []Column
	Rows     []map[string]string
}

// Exporter renders a Table into a document.
type Exporter interface {
	Render(t Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// TableFromRows builds a Table from loosely typed rows. Columns are the union of
// row keys with preferred keys first, then the rest alphabetically.
func TableFromRows(title string, rows []map[string]interface{}, preferred ...string) Table {
	seen := make(map[string]bool)
	var rest []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				rest = append(rest, key)
			}
		}
	}
	sort.Strings(rest)

	var keys []string
	used := make(map[string]bool)
	for _, key := range preferred {
		if seen[key] && !used[key] {
			keys = append(keys, key)
			used[key] = true
		}
	}
	for _, key := range rest {
		if !used[key] {
			keys = append(keys, key)
		}
	}

	columns := make([]Column, 0, len(keys))
	for _, key := range keys {
		columns = append(columns, Column{Key: key, Label: key})
	}

	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		cells := make(map[string]string, len(row))
		for key, value := range row {
			cells[key] = FormatValue(value)
		}
		out = append(out, cells)
	}

	return Table{Title: title, Columns: columns, Rows: out}
}

// FormatValue renders a decoded JSON value as cell text.
func FormatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return value.Format(time.RFC3339)
	case json.Number:
		return value.String()
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(raw)
	}
	return fmt.Sprint(v)
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

func (t Table) labels() []string {
	labels := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}
