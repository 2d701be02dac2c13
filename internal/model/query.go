package model

// QueryResult holds the rows returned by a read query, in store order.
type QueryResult struct {
	Name    string
	SQL     string
	Columns []string
	Rows    [][]any
}

// Row returns row i as a column name to value map.
func (q *QueryResult) Row(i int) map[string]any {
	m := make(map[string]any, len(q.Columns))
	for j, c := range q.Columns {
		m[c] = q.Rows[i][j]
	}
	return m
}

// Column returns every value of the named column, or nil if the column is absent.
func (q *QueryResult) Column(name string) []any {
	idx := -1
	for j, c := range q.Columns {
		if c == name {
			idx = j
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, len(q.Rows))
	for i, r := range q.Rows {
		out[i] = r[idx]
	}
	return out
}
