// Package querysql compiles queryir values into parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/nexus/internal/queryir"
)

// SQLCompiler compiles queryir queries and statements to SQL for SQLite.
//
// Every Select has an ORDER BY ending in id so pages are deterministic.
// All values are parameterized, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a read query to SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := validate(q); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Count:
		return c.compileCount(query)
	case *queryir.Count:
		return c.compileCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// CompileStatement converts a write statement to SQL.
func (c *SQLCompiler) CompileStatement(s queryir.Statement) (string, []any, error) {
	if s == nil {
		return "", nil, fmt.Errorf("cannot compile nil statement")
	}
	if err := validate(s); err != nil {
		return "", nil, err
	}

	switch stmt := s.(type) {
	case queryir.Insert:
		return c.compileInsert(stmt)
	case *queryir.Insert:
		return c.compileInsert(*stmt)
	case queryir.Update:
		return c.compileUpdate(stmt)
	case *queryir.Update:
		return c.compileUpdate(*stmt)
	case queryir.Delete:
		return c.compileDelete(stmt)
	case *queryir.Delete:
		return c.compileDelete(*stmt)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", s)
	}
}

func validate(node any) error {
	result := queryir.Validate(node)
	if !result.Valid {
		return fmt.Errorf("invalid %T: %s", node, strings.Join(result.Problems, "; "))
	}
	return nil
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	where, params, err := c.whereClause(q.Filter)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(q.Columns, ", "),
		q.From,
		where,
		stableOrderKey(q.OrderBy))

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, q.Limit, q.Offset)
	}
	return sb.String(), params, nil
}

func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	where, params, err := c.whereClause(q.Filter)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.From, where), params, nil
}

func (c *SQLCompiler) compileInsert(ins queryir.Insert) (string, []any, error) {
	cols := make([]string, len(ins.Values))
	marks := make([]string, len(ins.Values))
	params := make([]any, len(ins.Values))
	for i, a := range ins.Values {
		cols[i] = a.Column
		marks[i] = "?"
		params[i] = a.Value
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ins.Into,
		strings.Join(cols, ", "),
		strings.Join(marks, ", "))
	if ins.IgnoreConflict {
		sql += " ON CONFLICT DO NOTHING"
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileUpdate(up queryir.Update) (string, []any, error) {
	sets := make([]string, len(up.Set))
	params := make([]any, 0, len(up.Set))
	for i, a := range up.Set {
		sets[i] = a.Column + " = ?"
		params = append(params, a.Value)
	}

	where, whereParams, err := c.whereClause(up.Filter)
	if err != nil {
		return "", nil, err
	}
	params = append(params, whereParams...)

	return fmt.Sprintf("UPDATE %s SET %s%s", up.Table, strings.Join(sets, ", "), where), params, nil
}

func (c *SQLCompiler) compileDelete(del queryir.Delete) (string, []any, error) {
	where, params, err := c.whereClause(del.Filter)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s%s", del.From, where), params, nil
}

// whereClause returns " WHERE <pred>" or "" for a nil filter.
func (c *SQLCompiler) whereClause(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, nil
	}
	sql, params, err := c.compilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// stableOrderKey renders ORDER BY keys, appending id when absent.
// The tiebreaker follows the direction of the last key.
func stableOrderKey(order []queryir.Order) string {
	if len(order) == 0 {
		return "id ASC"
	}

	parts := make([]string, 0, len(order)+1)
	hasID := false
	for _, o := range order {
		parts = append(parts, o.Column+direction(o.Desc))
		if o.Column == "id" {
			hasID = true
		}
	}
	if !hasID {
		parts = append(parts, "id"+direction(order[len(order)-1].Desc))
	}
	return strings.Join(parts, ", ")
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}

// compilePredicate compiles a predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Column + " = ?", []any{pred.Value}, nil
	case *queryir.Equals:
		return pred.Column + " = ?", []any{pred.Value}, nil
	case queryir.Between:
		return pred.Column + " BETWEEN ? AND ?", []any{pred.Low, pred.High}, nil
	case *queryir.Between:
		return pred.Column + " BETWEEN ? AND ?", []any{pred.Low, pred.High}, nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileJunction joins operands with sep. Nested junctions are
// parenthesized so AND inside OR keeps its meaning.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, pred := range preds {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if isJunction(pred) {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, sep), params, nil
}

func isJunction(p queryir.Predicate) bool {
	switch p.(type) {
	case queryir.And, *queryir.And, queryir.Or, *queryir.Or:
		return true
	}
	return false
}
