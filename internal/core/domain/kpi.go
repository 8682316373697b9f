package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Column names of the standard KPI table that the helpers rely on.
const (
	StandardKPITable = "MM_STD_KPI"

	ColumnModelUUID = "ModelUUID"
	ColumnModelName = "ModelName"
	ColumnTimeLabel = "TimeLabel"

	// DefaultRowLimit caps schema and row fetches from the tabular store.
	DefaultRowLimit = 10000
)

// missingValues are the markers the tabular store uses for an empty cell.
var missingValues = map[string]bool{
	".": true,
	"":  true,
}

// KPIQuery selects the KPI table of a project and optionally narrows its rows
// to those where FilterColumn equals FilterValue. The filter only applies when
// both are set.
type KPIQuery struct {
	Server       string
	Caslib       string
	FilterColumn string
	FilterValue  string
}

func (q KPIQuery) Filtered() bool {
	return q.FilterColumn != "" && q.FilterValue != ""
}

var filterColumnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WhereClause renders the row filter as column='value'. The column must be a
// plain identifier and quotes in the value are doubled. It returns "" when the
// query is not filtered.
func (q KPIQuery) WhereClause() (string, error) {
	if !q.Filtered() {
		return "", nil
	}
	if !filterColumnPattern.MatchString(q.FilterColumn) {
		return "", fmt.Errorf("%w: column %q is not a plain identifier", ErrInvalidFilter, q.FilterColumn)
	}
	value := strings.ReplaceAll(q.FilterValue, "'", "''")
	return fmt.Sprintf("%s='%s'", q.FilterColumn, value), nil
}

// TableLocation addresses one table in the remote tabular store.
type TableLocation struct {
	Server string
	Caslib string
	Table  string
}

// StandardKPITableFor returns the table name holding a project's KPIs.
func StandardKPITableFor(projectID string) string {
	return projectID + "." + StandardKPITable
}

// Column describes one column of a remote table.
type Column struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
	Type  string `json:"type,omitempty"`
}

// RowQuery bounds a row fetch. Where is an already-rendered predicate.
type RowQuery struct {
	Limit int
	Where string
}

// KPIRow holds one row's cells, aligned with KPITable.Columns.
type KPIRow []any

// KPITable is an in-memory copy of a KPI table: one row per model and time
// label, with cells that are strings or nil for missing values.
type KPITable struct {
	Columns []string
	Rows    []KPIRow
}

// NewKPITable builds a table from raw cells in server order. Rows shorter than
// the column set are padded with nil; longer rows are cut.
func NewKPITable(columns []string, cells [][]any) *KPITable {
	t := &KPITable{Columns: columns, Rows: make([]KPIRow, 0, len(cells))}
	for _, c := range cells {
		row := make(KPIRow, len(columns))
		copy(row, c)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Normalize trims every string cell and turns missing-value markers into nil.
func (t *KPITable) Normalize() {
	for _, row := range t.Rows {
		for i, v := range row {
			row[i] = normalizeCell(v)
		}
	}
}

func normalizeCell(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if missingValues[s] {
		return nil
	}
	return s
}

// ColumnIndex returns the position of name, or -1.
func (t *KPITable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *KPITable) Len() int { return len(t.Rows) }

// Value returns the cell at row i in the named column, or nil if the column
// does not exist.
func (t *KPITable) Value(i int, column string) any {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][idx]
}

// RowsWhere returns the indexes of rows whose column equals value.
func (t *KPITable) RowsWhere(column, value string) []int {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	var out []int
	for i, row := range t.Rows {
		if row[idx] != nil && CellString(row[idx]) == value {
			out = append(out, i)
		}
	}
	return out
}

// ModelIDs returns the distinct ModelUUID values in first-seen order.
func (t *KPITable) ModelIDs() []string {
	idx := t.ColumnIndex(ColumnModelUUID)
	if idx < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, row := range t.Rows {
		if row[idx] == nil {
			continue
		}
		id := CellString(row[idx])
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// ModelName returns the ModelName of the first row for modelID, or "".
func (t *KPITable) ModelName(modelID string) string {
	rows := t.RowsWhere(ColumnModelUUID, modelID)
	if len(rows) == 0 {
		return ""
	}
	return CellString(t.Value(rows[0], ColumnModelName))
}

// CellString renders a cell as text; nil becomes "".
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
