package store

import (
	"fmt"

	"github.com/roach88/nexus/internal/model"
	"github.com/roach88/nexus/internal/queryir"
)

// assignList accumulates insert values, skipping absent optional fields.
type assignList []queryir.Assign

func (l *assignList) add(col string, v any) {
	*l = append(*l, queryir.Assign{Column: col, Value: v})
}

func addOpt[T any](l *assignList, col string, v *T) {
	if v != nil {
		l.add(col, *v)
	}
}

func farmerValues(f model.Farmer) []queryir.Assign {
	var l assignList
	l.add("farmer_name", f.FarmerName)
	addOpt(&l, "piece_cache_status", f.PieceCacheStatus)
	addOpt(&l, "piece_cache_percent", f.PieceCachePercent)
	addOpt(&l, "workers", f.Workers)
	return l
}

func nodeValues(n model.Node) []queryir.Assign {
	var l assignList
	l.add("node_name", n.NodeName)
	addOpt(&l, "status", n.Status)
	return l
}

func farmValues(f model.Farm) []queryir.Assign {
	var l assignList
	l.add("farm_id", f.FarmID)
	l.add("farmer_name", f.FarmerName)
	l.add("farm_index", f.FarmIndex)
	addOpt(&l, "public_key", f.PublicKey)
	addOpt(&l, "allocated_space_gib", f.AllocatedSpaceGiB)
	addOpt(&l, "directory", f.Directory)
	addOpt(&l, "status", f.Status)
	return l
}

// logValues decodes a time-series payload into insert values with its
// timestamp normalized. Absent optional columns are left out of the
// statement entirely.
func (s *Store) logValues(e model.Entity, p model.Payload) ([]queryir.Assign, error) {
	var l assignList

	switch e {
	case model.EntityPlot:
		var r model.Plot
		if err := p.Decode(&r); err != nil {
			return nil, err
		}
		at, err := normalize("plot_datetime", r.PlotDatetime)
		if err != nil {
			return nil, err
		}
		l.add("farmer_name", r.FarmerName)
		l.add("farm_index", r.FarmIndex)
		l.add("percentage", r.Percentage)
		addOpt(&l, "current_sector", r.CurrentSector)
		l.add("plot_type", r.PlotType)
		l.add("plot_datetime", at)

	case model.EntityReward:
		var r model.Reward
		if err := p.Decode(&r); err != nil {
			return nil, err
		}
		at, err := normalize("reward_datetime", r.RewardDatetime)
		if err != nil {
			return nil, err
		}
		l.add("farmer_name", r.FarmerName)
		l.add("farm_index", r.FarmIndex)
		addOpt(&l, "reward_hash", r.RewardHash)
		l.add("reward_type", r.RewardType)
		l.add("reward_datetime", at)

	case model.EntityError:
		var r model.ErrorRecord
		if err := p.Decode(&r); err != nil {
			return nil, err
		}
		at, err := normalize("error_datetime", r.ErrorDatetime)
		if err != nil {
			return nil, err
		}
		l.add("owner_name", r.OwnerName)
		l.add("error_text", r.ErrorText)
		l.add("error_datetime", at)

	case model.EntityClaim:
		var r model.Claim
		if err := p.Decode(&r); err != nil {
			return nil, err
		}
		at := s.now()
		if r.ClaimDatetime != nil {
			var err error
			if at, err = normalize("claim_datetime", *r.ClaimDatetime); err != nil {
				return nil, err
			}
		}
		l.add("node_name", r.NodeName)
		l.add("slot_number", r.SlotNumber)
		l.add("claim_type", r.ClaimType)
		l.add("claim_datetime", at)

	case model.EntityConsensus:
		var r model.Consensus
		if err := p.Decode(&r); err != nil {
			return nil, err
		}
		at, err := normalize("consensus_datetime", r.ConsensusDatetime)
		if err != nil {
			return nil, err
		}
		l.add("node_name", r.NodeName)
		l.add("status", r.Status)
		l.add("peers", r.Peers)
		l.add("best_block", r.BestBlock)
		addOpt(&l, "target_block", r.TargetBlock)
		l.add("finalized_block", r.FinalizedBlock)
		addOpt(&l, "blocks_per_second", r.BlocksPerSecond)
		l.add("down_speed", r.DownSpeed)
		l.add("up_speed", r.UpSpeed)
		l.add("consensus_datetime", at)

	default:
		return nil, unsupported("insert", string(e))
	}
	return l, nil
}

func normalize(field, s string) (string, error) {
	at, err := model.NormalizeDatetime(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return at, nil
}
