package queryir

// Query is a read: Select or Count.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Statement is a write: Insert, Update or Delete.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	statementNode()
}

// Predicate is a filter condition: Equals, Between, And or Or.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Order is one ORDER BY key.
type Order struct {
	Column string
	Desc   bool
}

// Select reads rows.
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order> LIMIT ? OFFSET ?
//
// Columns must be explicit. A zero Limit means no pagination clause.
// The compiler appends an id tiebreaker when OrderBy does not name id.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate // nil = no filter
	OrderBy []Order
	Limit   int
	Offset  int
}

func (Select) queryNode() {}

// Count counts the rows matching Filter.
//
//	SELECT COUNT(*) FROM <from> WHERE <filter>
type Count struct {
	From   string
	Filter Predicate
}

func (Count) queryNode() {}

// Assign pairs a column with a value for Insert and Update.
type Assign struct {
	Column string
	Value  any
}

// Insert adds one row. Only the listed columns appear in the statement;
// absent optional columns are omitted rather than written as NULL.
//
// When IgnoreConflict is set the statement ends in ON CONFLICT DO NOTHING
// and a duplicate row affects zero rows instead of failing.
type Insert struct {
	Into           string
	Values         []Assign
	IgnoreConflict bool
}

func (Insert) statementNode() {}

// Update sets columns on the rows matching Filter.
// Filter is required; an unfiltered update is rejected by Validate.
type Update struct {
	Table  string
	Set    []Assign
	Filter Predicate
}

func (Update) statementNode() {}

// Delete removes the rows matching Filter. A nil Filter removes every row.
type Delete struct {
	From   string
	Filter Predicate
}

func (Delete) statementNode() {}

// Equals is column = value. Value must not be nil.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// Between is column BETWEEN low AND high, inclusive on both ends.
type Between struct {
	Column string
	Low    any
	High   any
}

func (Between) predicateNode() {}

// And is a conjunction; empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction; it must have at least one operand.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// EqualsAll builds an And of Equals over the given assignments, in order.
func EqualsAll(values []Assign) And {
	preds := make([]Predicate, len(values))
	for i, v := range values {
		preds[i] = Equals{Column: v.Column, Value: v.Value}
	}
	return And{Predicates: preds}
}
