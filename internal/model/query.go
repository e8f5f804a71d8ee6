package model

import (
	"bytes"
	"encoding/json"
)

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 1000
)

// QueryRequest selects one page of an entity's history.
type QueryRequest struct {
	Page  int
	Limit int

	// Start and End bound the entity's time column, inclusive.
	Start string
	End   string

	// Filters holds optional equality filters by column name.
	// Absent keys do not filter.
	Filters map[string]string
}

// Offset returns the row offset of the requested page.
func (q QueryRequest) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Row is one result row. Values are in the order of Columns and the JSON
// encoding preserves that order.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Page is one page of query results plus the total matching the filter.
type Page struct {
	Rows  []Row `json:"Rows"`
	Total int64 `json:"Total"`
	Page  int   `json:"Page"`
	Limit int   `json:"Limit"`
}
