package queryir

import (
	"fmt"
	"regexp"
)

// ValidationResult lists the structural problems found in a query or
// statement. Valid is true when Problems is empty.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// identifier matches the table and column names the catalog uses.
var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks a Query or Statement before compilation.
//
// Rules:
//  1. Table and column names are plain lowercase identifiers.
//  2. Select lists its columns explicitly.
//  3. Equals and Between never compare against nil.
//  4. Or has at least one operand.
//  5. Insert and Update assign at least one column; Update has a filter.
//  6. Limit and Offset are not negative.
//
// Validate is a pure function with no side effects.
func Validate(node any) ValidationResult {
	v := &validator{}
	switch n := node.(type) {
	case Select:
		v.validateSelect(n)
	case *Select:
		v.validateSelect(*n)
	case Count:
		v.ident("table", n.From)
		v.validatePredicate(n.Filter)
	case *Count:
		v.ident("table", n.From)
		v.validatePredicate(n.Filter)
	case Insert:
		v.validateInsert(n)
	case *Insert:
		v.validateInsert(*n)
	case Update:
		v.validateUpdate(n)
	case *Update:
		v.validateUpdate(*n)
	case Delete:
		v.ident("table", n.From)
		v.validatePredicate(n.Filter)
	case *Delete:
		v.ident("table", n.From)
		v.validatePredicate(n.Filter)
	case nil:
		v.add("nil node")
	default:
		v.add("unknown node type: %T", node)
	}

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) ident(what, name string) {
	if !identifier.MatchString(name) {
		v.add("invalid %s name %q", what, name)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.ident("table", sel.From)
	if len(sel.Columns) == 0 {
		v.add("select on %s has no columns", sel.From)
	}
	for _, c := range sel.Columns {
		v.ident("column", c)
	}
	for _, o := range sel.OrderBy {
		v.ident("order column", o.Column)
	}
	if sel.Limit < 0 {
		v.add("negative limit %d", sel.Limit)
	}
	if sel.Offset < 0 {
		v.add("negative offset %d", sel.Offset)
	}
	v.validatePredicate(sel.Filter)
}

func (v *validator) validateInsert(ins Insert) {
	v.ident("table", ins.Into)
	if len(ins.Values) == 0 {
		v.add("insert into %s has no values", ins.Into)
	}
	for _, a := range ins.Values {
		v.ident("column", a.Column)
	}
}

func (v *validator) validateUpdate(up Update) {
	v.ident("table", up.Table)
	if len(up.Set) == 0 {
		v.add("update of %s sets no columns", up.Table)
	}
	for _, a := range up.Set {
		v.ident("column", a.Column)
	}
	if up.Filter == nil {
		v.add("update of %s has no filter", up.Table)
		return
	}
	v.validatePredicate(up.Filter)
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Between:
		v.validateBetween(pred)
	case *Between:
		v.validateBetween(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		v.validateOr(pred)
	case *Or:
		v.validateOr(*pred)
	default:
		v.add("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.ident("column", eq.Column)
	if eq.Value == nil {
		v.add("column %q compared to NULL", eq.Column)
	}
}

func (v *validator) validateBetween(b Between) {
	v.ident("column", b.Column)
	if b.Low == nil || b.High == nil {
		v.add("column %q range has a NULL bound", b.Column)
	}
}

func (v *validator) validateOr(or Or) {
	if len(or.Predicates) == 0 {
		v.add("empty OR")
	}
	for _, sub := range or.Predicates {
		v.validatePredicate(sub)
	}
}
