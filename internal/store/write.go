package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/nexus/internal/canonical"
	"github.com/roach88/nexus/internal/model"
	"github.com/roach88/nexus/internal/queryir"
)

// Outcome messages. Unchanged outcomes are successes, not errors.
const (
	MsgInserted      = "inserted"
	MsgAlreadyExists = "already exists, no change"
	MsgUpdated       = "updated"
	MsgNoChanges     = "no changes made"
	MsgNoMatch       = "no matching rows"
	MsgDeleted       = "deleted"
)

// Outcome is the result of a successful write.
// Changed is false when the store was left as it was.
type Outcome struct {
	Changed bool
	Message string
	Data    map[string]any
}

// Insert records payload p as a new e.
//
// Farmers and nodes follow the singleton pattern: a new name replaces
// every existing row, a known name is left alone. Farms resolve
// conflicts on farm id and farm index within their farmer. Events are
// deduplicated on (owner, datetime, type, canonical payload). Every other
// entity appends a row.
//
// The payload is expected to have passed validate.Check.
func (s *Store) Insert(ctx context.Context, e model.Entity, p model.Payload) (Outcome, error) {
	switch e {
	case model.EntityFarmer:
		var f model.Farmer
		if err := p.Decode(&f); err != nil {
			return Outcome{}, err
		}
		return s.insertSingleton(ctx, e.Table(), f.FarmerName, farmerValues(f))
	case model.EntityNode:
		var n model.Node
		if err := p.Decode(&n); err != nil {
			return Outcome{}, err
		}
		return s.insertSingleton(ctx, e.Table(), n.NodeName, nodeValues(n))
	case model.EntityFarm:
		var f model.Farm
		if err := p.Decode(&f); err != nil {
			return Outcome{}, err
		}
		return s.insertFarm(ctx, f)
	case model.EntityFarmerEvent, model.EntityNodeEvent:
		var ev model.Event
		if err := p.Decode(&ev); err != nil {
			return Outcome{}, err
		}
		owner, _ := p[e.Table().OwnerColumn].(string)
		ev.Owner = owner
		return s.insertEvent(ctx, e.Table(), ev)
	}

	values, err := s.logValues(e, p)
	if err != nil {
		return Outcome{}, err
	}
	return s.insertLog(ctx, e.Table(), values)
}

// insertSingleton inserts a farmer or node unless one with that name
// exists. Rows with any other name are purged first.
func (s *Store) insertSingleton(ctx context.Context, table model.Table, name string, values []queryir.Assign) (Outcome, error) {
	var out Outcome
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := s.exists(ctx, tx, table.Name, queryir.Equals{Column: table.OwnerColumn, Value: name})
		if err != nil {
			return err
		}
		if exists {
			out = Outcome{Message: MsgAlreadyExists}
			return nil
		}

		purged, err := s.exec(ctx, tx, queryir.Delete{From: table.Name})
		if err != nil {
			return err
		}
		if purged > 0 {
			s.logger.Info("replaced previous rows", "table", table.Name, "name", name, "purged", purged)
		}

		values = append(values, queryir.Assign{Column: table.TimeColumn, Value: s.now()})
		if _, err := s.exec(ctx, tx, queryir.Insert{Into: table.Name, Values: values}); err != nil {
			return err
		}
		out = Outcome{Changed: true, Message: MsgInserted, Data: map[string]any{"purged": purged}}
		return nil
	})
	return out, err
}

// insertFarm inserts a farm after removing rows it supersedes.
//
// Within the farmer, a row sharing both farm id and farm index is an exact
// duplicate and suppresses the insert. A row sharing only one of them is
// stale (the directory was reformatted or re-indexed) and is deleted.
func (s *Store) insertFarm(ctx context.Context, f model.Farm) (Outcome, error) {
	table := model.EntityFarm.Table()

	var out Outcome
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := s.exists(ctx, tx, "farmers", queryir.Equals{Column: "farmer_name", Value: f.FarmerName})
		if err != nil {
			return err
		}
		if !found {
			return farmerNotFound(f.FarmerName)
		}

		matches, err := s.selectRows(ctx, tx, table, queryir.Select{
			From:    table.Name,
			Columns: []string{"id", "farm_id", "farm_index"},
			Filter: queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Column: "farmer_name", Value: f.FarmerName},
				queryir.Or{Predicates: []queryir.Predicate{
					queryir.Equals{Column: "farm_id", Value: f.FarmID},
					queryir.Equals{Column: "farm_index", Value: f.FarmIndex},
				}},
			}},
		})
		if err != nil {
			return err
		}

		duplicate := false
		replaced := []map[string]any{}
		for _, row := range matches {
			id, _ := row.Get("id")
			farmID, _ := row.Get("farm_id")
			farmIndex, _ := row.Get("farm_index")
			if farmID == f.FarmID && farmIndex == f.FarmIndex {
				duplicate = true
				continue
			}
			if _, err := s.exec(ctx, tx, queryir.Delete{From: table.Name, Filter: queryir.Equals{Column: "id", Value: id}}); err != nil {
				return err
			}
			s.logger.Info("deleted conflicting farm",
				"farmer", f.FarmerName, "farm_id", farmID, "farm_index", farmIndex,
				"new_farm_id", f.FarmID, "new_farm_index", f.FarmIndex)
			replaced = append(replaced, map[string]any{"farm_id": farmID, "farm_index": farmIndex})
		}

		if duplicate {
			out = Outcome{Changed: len(replaced) > 0, Message: MsgAlreadyExists, Data: map[string]any{"replaced": replaced}}
			return nil
		}

		values := append(farmValues(f), queryir.Assign{Column: table.TimeColumn, Value: s.now()})
		if _, err := s.exec(ctx, tx, queryir.Insert{Into: table.Name, Values: values}); err != nil {
			return err
		}
		out = Outcome{Changed: true, Message: MsgInserted, Data: map[string]any{"replaced": replaced}}
		return nil
	})
	return out, err
}

// insertEvent inserts an event unless an identical one exists.
func (s *Store) insertEvent(ctx context.Context, table model.Table, ev model.Event) (Outcome, error) {
	data, err := canonical.Marshal(ev.EventData)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: event_data: %v", model.ErrInvalidType, err)
	}
	at, err := model.NormalizeDatetime(ev.EventDatetime)
	if err != nil {
		return Outcome{}, fmt.Errorf("event_datetime: %w", err)
	}

	var out Outcome
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.exec(ctx, tx, queryir.Insert{
			Into: table.Name,
			Values: []queryir.Assign{
				{Column: table.OwnerColumn, Value: ev.Owner},
				{Column: "event_type", Value: ev.EventType},
				{Column: "event_data", Value: string(data)},
				{Column: "event_datetime", Value: at},
			},
			IgnoreConflict: true,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			s.logger.Debug("duplicate event", "table", table.Name, "owner", ev.Owner, "type", ev.EventType, "at", at)
			out = Outcome{Message: MsgAlreadyExists, Data: map[string]any{"inserted": false}}
			return nil
		}
		out = Outcome{Changed: true, Message: MsgInserted, Data: map[string]any{"inserted": true}}
		return nil
	})
	return out, err
}

// insertLog appends one time-series row.
func (s *Store) insertLog(ctx context.Context, table model.Table, values []queryir.Assign) (Outcome, error) {
	var out Outcome
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, queryir.Insert{Into: table.Name, Values: values}); err != nil {
			return err
		}
		out = Outcome{Changed: true, Message: MsgInserted}
		return nil
	})
	return out, err
}

// Update sets the mutable fields present in p on the row matched by the
// entity's match key. Only farmers, nodes and farms can be updated.
func (s *Store) Update(ctx context.Context, e model.Entity, p model.Payload) (Outcome, error) {
	if !e.Supports(model.OpUpdate) {
		return Outcome{}, unsupported("update", e.Plural())
	}
	table := e.Table()

	set, err := assigns(table, table.Mutable, p, true)
	if err != nil {
		return Outcome{}, err
	}
	if len(set) == 0 {
		return Outcome{Message: MsgNoChanges}, nil
	}
	match, err := assigns(table, table.MatchKey, p, false)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.exec(ctx, tx, queryir.Update{Table: table.Name, Set: set, Filter: queryir.EqualsAll(match)})
		if err != nil {
			return err
		}
		if n == 0 {
			out = Outcome{Message: MsgNoMatch}
			return nil
		}
		out = Outcome{Changed: true, Message: MsgUpdated, Data: map[string]any{"updated": n}}
		return nil
	})
	return out, err
}

// Delete removes the row identified by the entity's full identity key.
// Only farmers, nodes and farms support single-row delete.
func (s *Store) Delete(ctx context.Context, e model.Entity, p model.Payload) (Outcome, error) {
	if !e.Supports(model.OpDelete) {
		return Outcome{}, unsupported("delete", e.Plural())
	}
	table := e.Table()

	key, err := assigns(table, table.Identity, p, false)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.exec(ctx, tx, queryir.Delete{From: table.Name, Filter: queryir.EqualsAll(key)})
		if err != nil {
			return err
		}
		if n == 0 {
			out = Outcome{Message: MsgNoChanges}
			return nil
		}
		out = Outcome{Changed: true, Message: MsgDeleted, Data: map[string]any{"deleted": n}}
		return nil
	})
	return out, err
}

// DeleteAll removes every row of e and reports how many were removed.
func (s *Store) DeleteAll(ctx context.Context, e model.Entity) (Outcome, error) {
	table := e.Table()

	var out Outcome
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := s.exec(ctx, tx, queryir.Delete{From: table.Name})
		if err != nil {
			return err
		}
		s.logger.Info("deleted all rows", "table", table.Name, "deleted", n)
		out = Outcome{Changed: n > 0, Message: MsgDeleted, Data: map[string]any{"deleted": n}}
		return nil
	})
	return out, err
}

// exists reports whether any row of table matches filter.
func (s *Store) exists(ctx context.Context, tx *sql.Tx, table string, filter queryir.Predicate) (bool, error) {
	query, args, err := s.compiler.Compile(queryir.Count{From: table, Filter: filter})
	if err != nil {
		return false, storageError("compile", err)
	}
	var n int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, storageError("count", err)
	}
	return n > 0, nil
}

// assigns coerces the listed fields of p to their column kinds.
// With optional set, absent fields are skipped; otherwise they are an error.
func assigns(table model.Table, fields []string, p model.Payload, optional bool) ([]queryir.Assign, error) {
	out := make([]queryir.Assign, 0, len(fields))
	for _, name := range fields {
		if !p.Has(name) {
			if optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s is required", model.ErrInvalidType, name)
		}
		col, _ := table.Column(name)
		v, err := model.Coerce(col.Kind, p[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, queryir.Assign{Column: name, Value: v})
	}
	return out, nil
}

func (s *Store) now() string {
	return model.FormatDatetime(s.clock.Now().UTC())
}
