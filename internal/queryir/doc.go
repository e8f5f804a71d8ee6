// Package queryir is the structured query representation used by the store.
//
// Every statement the store runs is built as a value of this package and
// compiled by querysql into parameterized SQL. Caller-supplied values only
// ever travel as parameters; identifiers come from the static entity
// catalog and are checked by Validate before compilation.
//
// Query and Predicate are sealed interfaces using the marker method
// pattern, so backends can switch over them exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // rows
//	case Count:
//	    // total
//	}
//
// Statement covers the writes: Insert, Update and Delete.
//
// Predicates are ordered. And and Or keep their operands in the order
// given, and the compiled SQL and parameter list follow that order, so
// the same request always produces byte-identical SQL.
//
// Pagination is part of Select (Limit, Offset). Count carries the same
// filter without pagination; BuildPage produces both from one predicate
// so a page and its total can never disagree about which rows match.
package queryir
