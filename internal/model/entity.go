package model

import (
	"fmt"
	"strings"
)

// Entity identifies one kind of telemetry record.
type Entity string

const (
	EntityFarmer      Entity = "farmer"
	EntityNode        Entity = "node"
	EntityFarm        Entity = "farm"
	EntityFarmerEvent Entity = "farmer_event"
	EntityNodeEvent   Entity = "node_event"
	EntityPlot        Entity = "plot"
	EntityReward      Entity = "reward"
	EntityError       Entity = "error"
	EntityClaim       Entity = "claim"
	EntityConsensus   Entity = "consensus"
)

// AllEntities returns every entity in catalog order.
func AllEntities() []Entity {
	return []Entity{
		EntityFarmer,
		EntityNode,
		EntityFarm,
		EntityFarmerEvent,
		EntityNodeEvent,
		EntityPlot,
		EntityReward,
		EntityError,
		EntityClaim,
		EntityConsensus,
	}
}

// plurals maps the collection form used by read and reset routes
// ("/get/farms", "/delete/farms/all") to the entity.
var plurals = map[string]Entity{
	"farmers":       EntityFarmer,
	"nodes":         EntityNode,
	"farms":         EntityFarm,
	"farmer_events": EntityFarmerEvent,
	"node_events":   EntityNodeEvent,
	"plots":         EntityPlot,
	"rewards":       EntityReward,
	"errors":        EntityError,
	"claims":        EntityClaim,
}

// ParseEntity resolves a tag to an Entity.
// Singular and plural forms are accepted, case-insensitively, with '-'
// treated as '_'. Returns false for unknown tags.
func ParseEntity(tag string) (Entity, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), "-", "_")
	if e, ok := plurals[key]; ok {
		return e, true
	}
	e := Entity(key)
	if _, ok := catalog[e]; ok {
		return e, true
	}
	return "", false
}

// Plural returns the collection form of the entity tag.
func (e Entity) Plural() string {
	for p, ent := range plurals {
		if ent == e {
			return p
		}
	}
	return string(e)
}

// IsEvent reports whether the entity is an immutable, deduplicated event.
func (e Entity) IsEvent() bool {
	return e == EntityFarmerEvent || e == EntityNodeEvent
}

// IsLog reports whether the entity is an append-only time series.
func (e Entity) IsLog() bool {
	switch e {
	case EntityPlot, EntityReward, EntityError, EntityClaim, EntityConsensus:
		return true
	}
	return false
}

// Mutable reports whether the entity supports update and single-row delete.
func (e Entity) Mutable() bool {
	return e == EntityFarmer || e == EntityNode || e == EntityFarm
}

// Table returns the catalog entry for the entity.
// Panics on an entity that is not in the catalog; callers obtain entities
// from ParseEntity or the constants above.
func (e Entity) Table() Table {
	t, ok := catalog[e]
	if !ok {
		panic(fmt.Sprintf("model: no table for entity %q", string(e)))
	}
	return t
}
