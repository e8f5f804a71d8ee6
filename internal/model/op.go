package model

// Op is a logical store operation.
type Op string

const (
	OpInsert    Op = "insert"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpDeleteAll Op = "delete_all"
	OpQuery     Op = "query"
)

// Supports reports whether the entity accepts the operation.
// Every entity accepts insert, delete-all and query; update and single-row
// delete are limited to farmers, nodes and farms.
func (e Entity) Supports(op Op) bool {
	switch op {
	case OpInsert, OpDeleteAll, OpQuery:
		return true
	case OpUpdate, OpDelete:
		return e.Mutable()
	default:
		return false
	}
}
