// Package validate checks write payloads and query requests before they
// reach the database.
//
// Checks run in a fixed order and stop at the first failing class:
//
//  1. Required fields: present with a non-null value; text must be non-blank.
//     Presence is by key, so a farm index of 0 is present.
//  2. Datetimes: must parse as YYYY-MM-DD HH:MM:SS[.ffffff].
//  3. Types: every known field must convert to its column kind.
//
// A failed check never touches storage. The returned *Error carries the
// failure kind and the offending field names.
package validate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/nexus/internal/canonical"
	"github.com/roach88/nexus/internal/model"
)

// Kind classifies a validation failure.
type Kind string

const (
	// KindMissingField means one or more required fields are absent.
	KindMissingField Kind = "missing_field"

	// KindInvalidDatetime means a timestamp does not parse.
	KindInvalidDatetime Kind = "invalid_datetime"

	// KindInvalidType means a value cannot convert to its column type.
	KindInvalidType Kind = "invalid_type"

	// KindInvalidValue means a value has the right type but is out of range.
	KindInvalidValue Kind = "invalid_value"
)

// Error describes why a payload or query was rejected.
type Error struct {
	Kind   Kind
	Fields []string
	Reason string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Reason, strings.Join(e.Fields, ", "))
}

// AsError extracts a validation error from err.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsInvalidDatetime reports whether err is a datetime validation failure.
func IsInvalidDatetime(err error) bool {
	ve, ok := AsError(err)
	return ok && ve.Kind == KindInvalidDatetime
}

// IsMissingField reports whether err is a missing field failure.
func IsMissingField(err error) bool {
	ve, ok := AsError(err)
	return ok && ve.Kind == KindMissingField
}

// Check validates payload p for operation op on entity e.
// Returns nil when the payload is acceptable.
func Check(op model.Op, e model.Entity, p model.Payload) error {
	required := requiredFields(op, e, p)

	var missing []string
	for _, f := range required {
		if !present(p, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &Error{Kind: KindMissingField, Fields: missing, Reason: "missing required field"}
	}

	if op == model.OpDeleteAll {
		return nil
	}
	return checkTypes(e.Table(), p)
}

// requiredFields lists the fields op requires for e, in report order.
func requiredFields(op model.Op, e model.Entity, p model.Payload) []string {
	table := e.Table()
	switch op {
	case model.OpUpdate:
		return table.MatchKey
	case model.OpDelete:
		return table.Identity
	case model.OpInsert:
	default:
		return nil
	}

	switch e {
	case model.EntityFarmer:
		return []string{"farmer_name"}
	case model.EntityNode:
		return []string{"node_name"}
	case model.EntityFarm:
		return []string{"farm_id", "farmer_name", "farm_index"}
	case model.EntityFarmerEvent, model.EntityNodeEvent:
		return []string{table.OwnerColumn, "event_datetime", "event_type", "event_data"}
	case model.EntityPlot:
		fields := []string{"farmer_name", "farm_index", "percentage", "plot_type", "plot_datetime"}
		if !plotComplete(p) {
			fields = append(fields, "current_sector")
		}
		return fields
	case model.EntityReward:
		fields := []string{"farmer_name", "farm_index", "reward_type", "reward_datetime"}
		if completedReward(p) {
			fields = append(fields, "reward_hash")
		}
		return fields
	case model.EntityError:
		return []string{"owner_name", "error_text", "error_datetime"}
	case model.EntityClaim:
		return []string{"node_name", "slot_number", "claim_type"}
	case model.EntityConsensus:
		return []string{
			"node_name", "status", "peers", "best_block", "finalized_block",
			"down_speed", "up_speed", "consensus_datetime",
		}
	}
	return nil
}

// plotComplete reports whether percentage is exactly 100.
func plotComplete(p model.Payload) bool {
	if !p.Has("percentage") {
		return false
	}
	v, err := model.Coerce(model.KindReal, p["percentage"])
	return err == nil && v.(float64) == model.PlotComplete
}

// completedReward reports whether the reward type denotes a won reward.
func completedReward(p model.Payload) bool {
	s, ok := p["reward_type"].(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), model.CompletedRewardType)
}

// present reports whether field is set; blank strings count as absent.
func present(p model.Payload, field string) bool {
	if !p.Has(field) {
		return false
	}
	if s, ok := p[field].(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// checkTypes converts every known, non-null field to its column kind.
func checkTypes(table model.Table, p model.Payload) error {
	var badTime, badType, badValue []string

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		col, ok := table.Column(k)
		if !ok || k == "id" || !p.Has(k) {
			continue
		}
		if col.Kind == model.KindJSON {
			if _, err := canonical.Marshal(p[k]); err != nil {
				badValue = append(badValue, k)
			}
			continue
		}
		if _, err := model.Coerce(col.Kind, p[k]); err != nil {
			if errors.Is(err, model.ErrInvalidDatetime) {
				badTime = append(badTime, k)
			} else {
				badType = append(badType, k)
			}
		}
	}

	switch {
	case len(badTime) > 0:
		return &Error{Kind: KindInvalidDatetime, Fields: badTime, Reason: "invalid datetime, want YYYY-MM-DD HH:MM:SS[.ffffff]"}
	case len(badType) > 0:
		return &Error{Kind: KindInvalidType, Fields: badType, Reason: "invalid field type"}
	case len(badValue) > 0:
		return &Error{Kind: KindInvalidValue, Fields: badValue, Reason: "value cannot be serialized"}
	}
	return nil
}

// CheckQuery validates a query request for entity e.
// maxLimit bounds the page size; values below 1 use model.MaxLimit.
func CheckQuery(e model.Entity, q model.QueryRequest, maxLimit int) error {
	if maxLimit < 1 {
		maxLimit = model.MaxLimit
	}

	var missing []string
	if strings.TrimSpace(q.Start) == "" {
		missing = append(missing, "start_datetime")
	}
	if strings.TrimSpace(q.End) == "" {
		missing = append(missing, "end_datetime")
	}
	if len(missing) > 0 {
		return &Error{Kind: KindMissingField, Fields: missing, Reason: "missing required field"}
	}

	var badTime []string
	if _, err := model.ParseDatetime(q.Start); err != nil {
		badTime = append(badTime, "start_datetime")
	}
	if _, err := model.ParseDatetime(q.End); err != nil {
		badTime = append(badTime, "end_datetime")
	}
	if len(badTime) > 0 {
		return &Error{Kind: KindInvalidDatetime, Fields: badTime, Reason: "invalid datetime, want YYYY-MM-DD HH:MM:SS[.ffffff]"}
	}

	if q.Page < 1 {
		return &Error{Kind: KindInvalidValue, Fields: []string{"page"}, Reason: "page must be at least 1"}
	}
	if q.Limit < 1 || q.Limit > maxLimit {
		return &Error{Kind: KindInvalidValue, Fields: []string{"limit"}, Reason: fmt.Sprintf("limit must be between 1 and %d", maxLimit)}
	}
	// The row offset (page-1)*limit must fit in an int.
	if q.Page-1 > math.MaxInt/q.Limit {
		return &Error{Kind: KindInvalidValue, Fields: []string{"page"}, Reason: "page is out of range"}
	}

	table := e.Table()
	var unknown, badType []string
	for _, name := range sortedKeys(q.Filters) {
		if q.Filters[name] == "" {
			continue
		}
		if !isFilter(table, name) {
			unknown = append(unknown, name)
			continue
		}
		col, _ := table.Column(name)
		if _, err := model.Coerce(col.Kind, q.Filters[name]); err != nil {
			badType = append(badType, name)
		}
	}
	if len(unknown) > 0 {
		return &Error{Kind: KindInvalidValue, Fields: unknown, Reason: fmt.Sprintf("unknown filter for %s", e.Plural())}
	}
	if len(badType) > 0 {
		return &Error{Kind: KindInvalidType, Fields: badType, Reason: "invalid filter type"}
	}
	return nil
}

func isFilter(table model.Table, name string) bool {
	for _, f := range table.Filters {
		if f == name {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
