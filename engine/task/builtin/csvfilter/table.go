package csvfilter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is a parsed CSV file with a header row.
type Table struct {
	Columns []string
	Rows    [][]string
	// kinds is fixed by the source table so filtered views keep its types.
	kinds []columnKind
}

// ReadTable parses r; the first record is the header.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no header")
	}
	table := &Table{Columns: records[0], Rows: records[1:]}
	table.kinds = table.columnKinds()
	return table, nil
}

// Filter returns the rows whose column equals value. Column types stay those
// inferred over every row of t.
func (t *Table) Filter(column, value string) (*Table, error) {
	idx := slices.Index(t.Columns, column)
	if idx < 0 {
		return nil, fmt.Errorf("csv has no %q column", column)
	}
	kept := &Table{Columns: t.Columns, Rows: make([][]string, 0, len(t.Rows)), kinds: t.columnKinds()}
	for _, row := range t.Rows {
		if row[idx] == value {
			kept.Rows = append(kept.Rows, row)
		}
	}
	return kept, nil
}

// Records converts rows to column-ordered objects. Columns whose values all
// parse as integers or floats are emitted as numbers; empty cells are null.
func (t *Table) Records() []*orderedmap.OrderedMap[string, any] {
	kinds := t.columnKinds()
	out := make([]*orderedmap.OrderedMap[string, any], 0, len(t.Rows))
	for _, row := range t.Rows {
		record := orderedmap.New[string, any](len(t.Columns))
		for i, name := range t.Columns {
			record.Set(name, convert(row[i], kinds[i]))
		}
		out = append(out, record)
	}
	return out
}

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
)

func (t *Table) columnKinds() []columnKind {
	if len(t.kinds) == len(t.Columns) {
		return t.kinds
	}
	kinds := make([]columnKind, len(t.Columns))
	for i := range t.Columns {
		kinds[i] = t.inferKind(i)
	}
	return kinds
}

func (t *Table) inferKind(col int) columnKind {
	kind := kindInt
	seen := false
	for _, row := range t.Rows {
		cell := row[col]
		if cell == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			kind = kindFloat
			continue
		}
		return kindString
	}
	if !seen {
		return kindString
	}
	return kind
}

func convert(cell string, kind columnKind) any {
	if cell == "" {
		return nil
	}
	switch kind {
	case kindInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case kindFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	default:
		return cell
	}
}
