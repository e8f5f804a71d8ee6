package queryir

import (
	"fmt"

	"github.com/roach88/nexus/internal/model"
)

// BuildPage builds the data and count queries for one page of entity e.
//
// Both share one predicate: the inclusive time range on the entity's time
// column followed by the entity's optional equality filters in catalog
// order. Empty filter values are skipped. Rows are ordered newest first
// with id as tiebreaker.
func BuildPage(e model.Entity, req model.QueryRequest) (Select, Count, error) {
	table := e.Table()

	filter, err := pageFilter(table, req)
	if err != nil {
		return Select{}, Count{}, err
	}

	sel := Select{
		From:    table.Name,
		Columns: table.ColumnNames(),
		Filter:  filter,
		OrderBy: []Order{
			{Column: table.TimeColumn, Desc: true},
			{Column: "id", Desc: true},
		},
		Limit:  req.Limit,
		Offset: req.Offset(),
	}
	count := Count{From: table.Name, Filter: filter}
	return sel, count, nil
}

func pageFilter(table model.Table, req model.QueryRequest) (Predicate, error) {
	start, err := model.NormalizeDatetime(req.Start)
	if err != nil {
		return nil, fmt.Errorf("start_datetime: %w", err)
	}
	end, err := model.NormalizeDatetime(req.End)
	if err != nil {
		return nil, fmt.Errorf("end_datetime: %w", err)
	}

	preds := []Predicate{Between{Column: table.TimeColumn, Low: start, High: end}}
	for _, name := range table.Filters {
		raw, ok := req.Filters[name]
		if !ok || raw == "" {
			continue
		}
		col, _ := table.Column(name)
		val, err := model.Coerce(col.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
		preds = append(preds, Equals{Column: name, Value: val})
	}
	return And{Predicates: preds}, nil
}
