// Package store provides SQLite-backed storage for farming telemetry.
//
// Entities fall into three groups with different write rules:
//   - Singletons (farmers, nodes): one active row; a new name replaces
//     every existing row, a known name is left alone.
//   - Farms: keyed by (farmer name, farm index) within an existing farmer.
//     A submission that matches a row on farm id or farm index, but not
//     both, replaces that row.
//   - Events and logs: append-only. Events are deduplicated on owner,
//     datetime, type and canonical payload; logs never are.
//
// Every operation runs in one transaction and either applies fully or not
// at all. Reads page newest first on the entity's time column, with id
// breaking ties, and count the matching rows in the same transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Farms cascade with their farmer
//   - _txlock=immediate: Writers take the lock at BEGIN
//
// Timestamps are stored as text normalized to six fractional digits so
// lexical order is time order.
package store
