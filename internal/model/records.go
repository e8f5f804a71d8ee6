package model

// Farmer is the operator entity. At most one farmer row exists.
type Farmer struct {
	FarmerName        string   `mapstructure:"farmer_name"`
	PieceCacheStatus  *string  `mapstructure:"piece_cache_status"`
	PieceCachePercent *float64 `mapstructure:"piece_cache_percent"`
	Workers           *int64   `mapstructure:"workers"`
}

// Node is a consensus node, independent of farmers.
type Node struct {
	NodeName string  `mapstructure:"node_name"`
	Status   *string `mapstructure:"status"`
}

// Farm is one allocated plotting directory of a farmer.
// Its logical identity is (FarmerName, FarmIndex).
type Farm struct {
	FarmID            string   `mapstructure:"farm_id"`
	FarmerName        string   `mapstructure:"farmer_name"`
	FarmIndex         int64    `mapstructure:"farm_index"`
	PublicKey         *string  `mapstructure:"public_key"`
	AllocatedSpaceGiB *float64 `mapstructure:"allocated_space_gib"`
	Directory         *string  `mapstructure:"directory"`
	Status            *string  `mapstructure:"status"`
}

// Event is a farmer- or node-scoped event. Owner is the farmer or node name.
type Event struct {
	Owner         string
	EventType     string `mapstructure:"event_type"`
	EventData     any    `mapstructure:"event_data"`
	EventDatetime string `mapstructure:"event_datetime"`
}

// Plot is one plotting or replotting progress sample.
type Plot struct {
	FarmerName    string  `mapstructure:"farmer_name"`
	FarmIndex     int64   `mapstructure:"farm_index"`
	Percentage    float64 `mapstructure:"percentage"`
	CurrentSector *int64  `mapstructure:"current_sector"`
	PlotType      string  `mapstructure:"plot_type"`
	PlotDatetime  string  `mapstructure:"plot_datetime"`
}

// Reward is a reward attempt or a completed reward.
type Reward struct {
	FarmerName     string  `mapstructure:"farmer_name"`
	FarmIndex      int64   `mapstructure:"farm_index"`
	RewardHash     *string `mapstructure:"reward_hash"`
	RewardType     string  `mapstructure:"reward_type"`
	RewardDatetime string  `mapstructure:"reward_datetime"`
}

// ErrorRecord is an error reported by a farmer or node.
type ErrorRecord struct {
	OwnerName     string `mapstructure:"owner_name"`
	ErrorText     string `mapstructure:"error_text"`
	ErrorDatetime string `mapstructure:"error_datetime"`
}

// Claim is a node's attempt at a consensus slot.
type Claim struct {
	NodeName      string  `mapstructure:"node_name"`
	SlotNumber    int64   `mapstructure:"slot_number"`
	ClaimType     string  `mapstructure:"claim_type"`
	ClaimDatetime *string `mapstructure:"claim_datetime"`
}

// Consensus is a node's view of chain sync progress.
type Consensus struct {
	NodeName          string   `mapstructure:"node_name"`
	Status            string   `mapstructure:"status"`
	Peers             int64    `mapstructure:"peers"`
	BestBlock         int64    `mapstructure:"best_block"`
	TargetBlock       *int64   `mapstructure:"target_block"`
	FinalizedBlock    int64    `mapstructure:"finalized_block"`
	BlocksPerSecond   *float64 `mapstructure:"blocks_per_second"`
	DownSpeed         float64  `mapstructure:"down_speed"`
	UpSpeed           float64  `mapstructure:"up_speed"`
	ConsensusDatetime string   `mapstructure:"consensus_datetime"`
}

// CompletedRewardType is the reward type of a won reward, which carries a hash.
const CompletedRewardType = "Reward"

// PlotComplete is the percentage at which current_sector may be omitted.
const PlotComplete = 100.0
