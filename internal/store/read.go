package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/roach88/nexus/internal/model"
	"github.com/roach88/nexus/internal/queryir"
)

// Query returns one page of entity e plus the number of rows matching the
// same filter. Page and count are read in one transaction, so they always
// describe the same snapshot.
//
// Rows are newest first by the entity's time column, id breaking ties.
// The request is expected to have passed validate.CheckQuery.
func (s *Store) Query(ctx context.Context, e model.Entity, req model.QueryRequest) (model.Page, error) {
	table := e.Table()

	sel, count, err := queryir.BuildPage(e, req)
	if err != nil {
		return model.Page{}, err
	}
	countSQL, countArgs, err := s.compiler.Compile(count)
	if err != nil {
		return model.Page{}, storageError("compile", err)
	}

	page := model.Page{Page: req.Page, Limit: req.Limit}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.selectRows(ctx, tx, table, sel)
		if err != nil {
			return err
		}
		page.Rows = rows

		if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
			return storageError("count", err)
		}
		return nil
	})
	if err != nil {
		return model.Page{}, err
	}

	s.logger.Debug("query", "table", table.Name, "page", req.Page, "limit", req.Limit, "rows", len(page.Rows), "total", page.Total)
	return page, nil
}

// selectRows runs sel and scans every row in column order.
// JSON columns are returned as json.RawMessage.
func (s *Store) selectRows(ctx context.Context, tx *sql.Tx, table model.Table, sel queryir.Select) ([]model.Row, error) {
	query, args, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, storageError("compile", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query", err)
	}
	defer rows.Close()

	kinds := make([]model.Kind, len(sel.Columns))
	for i, name := range sel.Columns {
		col, _ := table.Column(name)
		kinds[i] = col.Kind
	}

	result := []model.Row{}
	for rows.Next() {
		values := make([]any, len(sel.Columns))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storageError("scan", err)
		}
		for i, v := range values {
			values[i] = columnValue(kinds[i], v)
		}
		result = append(result, model.Row{Columns: sel.Columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate rows", err)
	}
	return result, nil
}

// columnValue converts a scanned driver value to its API form.
func columnValue(kind model.Kind, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if kind == model.KindJSON {
		if s, ok := v.(string); ok {
			return json.RawMessage(s)
		}
	}
	return v
}
