package dispatch

import (
	"context"
	"fmt"

	"github.com/roach88/nexus/internal/model"
	"github.com/roach88/nexus/internal/store"
)

// handler holds the typed operations of one entity. Nil functions are
// operations the entity does not support.
type handler struct {
	insert    func(context.Context, model.Payload) (store.Outcome, error)
	update    func(context.Context, model.Payload) (store.Outcome, error)
	delete    func(context.Context, model.Payload) (store.Outcome, error)
	deleteAll func(context.Context) (store.Outcome, error)
	query     func(context.Context, model.QueryRequest) (model.Page, error)
}

func (h handler) supports(op model.Op) bool {
	switch op {
	case model.OpInsert:
		return h.insert != nil
	case model.OpUpdate:
		return h.update != nil
	case model.OpDelete:
		return h.delete != nil
	case model.OpDeleteAll:
		return h.deleteAll != nil
	case model.OpQuery:
		return h.query != nil
	}
	return false
}

// newRegistry binds every entity to st, registering update and delete only
// where the entity supports them.
func newRegistry(st Store) map[model.Entity]handler {
	reg := make(map[model.Entity]handler, len(model.AllEntities()))
	for _, e := range model.AllEntities() {
		e := e
		h := handler{
			insert: func(ctx context.Context, p model.Payload) (store.Outcome, error) {
				return st.Insert(ctx, e, p)
			},
			deleteAll: func(ctx context.Context) (store.Outcome, error) {
				return st.DeleteAll(ctx, e)
			},
			query: func(ctx context.Context, req model.QueryRequest) (model.Page, error) {
				return st.Query(ctx, e, req)
			},
		}
		if e.Supports(model.OpUpdate) {
			h.update = func(ctx context.Context, p model.Payload) (store.Outcome, error) {
				return st.Update(ctx, e, p)
			}
		}
		if e.Supports(model.OpDelete) {
			h.delete = func(ctx context.Context, p model.Payload) (store.Outcome, error) {
				return st.Delete(ctx, e, p)
			}
		}
		reg[e] = h
	}
	return reg
}

// checkRegistry verifies every entity is registered with exactly the
// operations it supports.
func checkRegistry(reg map[model.Entity]handler) error {
	ops := []model.Op{model.OpInsert, model.OpUpdate, model.OpDelete, model.OpDeleteAll, model.OpQuery}
	for _, e := range model.AllEntities() {
		h, ok := reg[e]
		if !ok {
			return fmt.Errorf("no handler registered for %s", e)
		}
		for _, op := range ops {
			if h.supports(op) != e.Supports(op) {
				return fmt.Errorf("handler for %s: %s registration does not match entity", e, op)
			}
		}
	}
	if len(reg) != len(model.AllEntities()) {
		return fmt.Errorf("registry has %d handlers for %d entities", len(reg), len(model.AllEntities()))
	}
	return nil
}
