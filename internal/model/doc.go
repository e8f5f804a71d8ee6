// Package model defines the telemetry entities stored by nexus.
//
// Every entity is addressed by an Entity tag ("farmer", "plot", ...) and
// described by a Table in the static catalog: its table name, its columns in
// canonical order, the timestamp column used for range filters and
// ordering, and the optional equality filters a query may apply.
//
// Writes arrive as a Payload, a mapping from field name to value decoded
// from JSON. Field names are the column names of the catalog. A field is
// present when its key exists with a non-null value, so a farm index of 0
// is present while a JSON null is not.
//
// # Datetimes
//
// Caller supplied timestamps use the layout YYYY-MM-DD HH:MM:SS with up to
// six optional fractional digits. They are stored normalized to exactly six
// fractional digits so that lexical order equals time order and two spellings
// of the same instant compare equal.
package model
