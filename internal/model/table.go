package model

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindReal
	KindDatetime
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindDatetime:
		return "datetime"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Column is one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Table describes how an entity is persisted and queried.
type Table struct {
	// Name is the SQL table name.
	Name string

	// Columns lists every column in canonical order, starting with id.
	Columns []Column

	// TimeColumn is filtered by the query time range and orders results.
	TimeColumn string

	// OwnerColumn names the farmer or node the record belongs to.
	OwnerColumn string

	// MatchKey selects the row an update applies to.
	MatchKey []string

	// Identity is the full key required by a single-row delete.
	Identity []string

	// Mutable lists the columns an update may set.
	Mutable []string

	// Filters lists the optional equality filters, in predicate order.
	Filters []string
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in canonical order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

const (
	colID               = "id"
	colCreationDatetime = "creation_datetime"
)

var catalog = map[Entity]Table{
	EntityFarmer: {
		Name: "farmers",
		Columns: []Column{
			{colID, KindInteger},
			{"farmer_name", KindText},
			{"piece_cache_status", KindText},
			{"piece_cache_percent", KindReal},
			{"workers", KindInteger},
			{colCreationDatetime, KindDatetime},
		},
		TimeColumn:  colCreationDatetime,
		OwnerColumn: "farmer_name",
		MatchKey:    []string{"farmer_name"},
		Identity:    []string{"farmer_name"},
		Mutable:     []string{"piece_cache_status", "piece_cache_percent", "workers"},
		Filters:     []string{"farmer_name"},
	},
	EntityNode: {
		Name: "nodes",
		Columns: []Column{
			{colID, KindInteger},
			{"node_name", KindText},
			{"status", KindText},
			{colCreationDatetime, KindDatetime},
		},
		TimeColumn:  colCreationDatetime,
		OwnerColumn: "node_name",
		MatchKey:    []string{"node_name"},
		Identity:    []string{"node_name"},
		Mutable:     []string{"status"},
		Filters:     []string{"node_name", "status"},
	},
	EntityFarm: {
		Name: "farms",
		Columns: []Column{
			{colID, KindInteger},
			{"farm_id", KindText},
			{"farmer_name", KindText},
			{"farm_index", KindInteger},
			{"public_key", KindText},
			{"allocated_space_gib", KindReal},
			{"directory", KindText},
			{"status", KindText},
			{colCreationDatetime, KindDatetime},
		},
		TimeColumn:  colCreationDatetime,
		OwnerColumn: "farmer_name",
		MatchKey:    []string{"farmer_name", "farm_index"},
		Identity:    []string{"farmer_name", "farm_id", "farm_index"},
		Mutable:     []string{"farm_id", "public_key", "allocated_space_gib", "directory", "status"},
		Filters:     []string{"farmer_name", "farm_index", "farm_id", "status"},
	},
	EntityFarmerEvent: {
		Name: "farmer_events",
		Columns: []Column{
			{colID, KindInteger},
			{"farmer_name", KindText},
			{"event_type", KindText},
			{"event_data", KindJSON},
			{"event_datetime", KindDatetime},
		},
		TimeColumn:  "event_datetime",
		OwnerColumn: "farmer_name",
		Filters:     []string{"farmer_name", "event_type"},
	},
	EntityNodeEvent: {
		Name: "node_events",
		Columns: []Column{
			{colID, KindInteger},
			{"node_name", KindText},
			{"event_type", KindText},
			{"event_data", KindJSON},
			{"event_datetime", KindDatetime},
		},
		TimeColumn:  "event_datetime",
		OwnerColumn: "node_name",
		Filters:     []string{"node_name", "event_type"},
	},
	EntityPlot: {
		Name: "plots",
		Columns: []Column{
			{colID, KindInteger},
			{"farmer_name", KindText},
			{"farm_index", KindInteger},
			{"percentage", KindReal},
			{"current_sector", KindInteger},
			{"plot_type", KindText},
			{"plot_datetime", KindDatetime},
		},
		TimeColumn:  "plot_datetime",
		OwnerColumn: "farmer_name",
		Filters:     []string{"farmer_name", "farm_index", "plot_type"},
	},
	EntityReward: {
		Name: "rewards",
		Columns: []Column{
			{colID, KindInteger},
			{"farmer_name", KindText},
			{"farm_index", KindInteger},
			{"reward_hash", KindText},
			{"reward_type", KindText},
			{"reward_datetime", KindDatetime},
		},
		TimeColumn:  "reward_datetime",
		OwnerColumn: "farmer_name",
		Filters:     []string{"farmer_name", "farm_index", "reward_type"},
	},
	EntityError: {
		Name: "errors",
		Columns: []Column{
			{colID, KindInteger},
			{"owner_name", KindText},
			{"error_text", KindText},
			{"error_datetime", KindDatetime},
		},
		TimeColumn:  "error_datetime",
		OwnerColumn: "owner_name",
		Filters:     []string{"owner_name"},
	},
	EntityClaim: {
		Name: "claims",
		Columns: []Column{
			{colID, KindInteger},
			{"node_name", KindText},
			{"slot_number", KindInteger},
			{"claim_type", KindText},
			{"claim_datetime", KindDatetime},
		},
		TimeColumn:  "claim_datetime",
		OwnerColumn: "node_name",
		Filters:     []string{"node_name", "claim_type"},
	},
	EntityConsensus: {
		Name: "consensus",
		Columns: []Column{
			{colID, KindInteger},
			{"node_name", KindText},
			{"status", KindText},
			{"peers", KindInteger},
			{"best_block", KindInteger},
			{"target_block", KindInteger},
			{"finalized_block", KindInteger},
			{"blocks_per_second", KindReal},
			{"down_speed", KindReal},
			{"up_speed", KindReal},
			{"consensus_datetime", KindDatetime},
		},
		TimeColumn:  "consensus_datetime",
		OwnerColumn: "node_name",
		Filters:     []string{"node_name", "status"},
	},
}
