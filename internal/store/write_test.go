package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nexus/internal/model"
)

func farmPayload(farmer, farmID string, index int) model.Payload {
	return model.Payload{"farmer_name": farmer, "farm_id": farmID, "farm_index": index}
}

func TestInsertFarmer_Singleton(t *testing.T) {
	s, _ := createTestStore(t)

	out := mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "alice", "workers": 4})
	assert.True(t, out.Changed)
	assert.Equal(t, MsgInserted, out.Message)

	out = mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "alice"})
	assert.False(t, out.Changed)
	assert.Equal(t, MsgAlreadyExists, out.Message)

	out = mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "bob"})
	assert.True(t, out.Changed)
	assert.Equal(t, int64(1), out.Data["purged"])

	assert.Equal(t, 1, countRows(t, s, "farmers"))
	var name string
	require.NoError(t, s.db.QueryRow("SELECT farmer_name FROM farmers").Scan(&name))
	assert.Equal(t, "bob", name)
}

func TestInsertFarmer_AtMostOneRowForAnySequence(t *testing.T) {
	s, _ := createTestStore(t)

	for _, name := range []string{"a", "b", "a", "a", "c", "b", "c", "c"} {
		mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": name})
		assert.Equal(t, 1, countRows(t, s, "farmers"))
	}
}

func TestInsertFarmer_ServerCreationTime(t *testing.T) {
	s, mock := createTestStore(t)
	mock.Add(1500 * time.Millisecond)

	mustInsert(t, s, model.EntityFarmer, model.Payload{
		"farmer_name":        "alice",
		"creation_datetime":  "1999-01-01 00:00:00",
		"piece_cache_status": "Syncing",
	})

	var created string
	require.NoError(t, s.db.QueryRow("SELECT creation_datetime FROM farmers").Scan(&created))
	assert.Equal(t, "2024-04-04 12:00:01.500000", created)
}

func TestInsertNode_Singleton(t *testing.T) {
	s, _ := createTestStore(t)

	mustInsert(t, s, model.EntityNode, model.Payload{"node_name": "n1", "status": "Syncing"})
	out := mustInsert(t, s, model.EntityNode, model.Payload{"node_name": "n1", "status": "Synced"})
	assert.Equal(t, MsgAlreadyExists, out.Message)

	mustInsert(t, s, model.EntityNode, model.Payload{"node_name": "n2"})
	assert.Equal(t, 1, countRows(t, s, "nodes"))
}

func TestInsertFarm_RequiresFarmer(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Insert(context.Background(), model.EntityFarm, farmPayload("ghost", "A", 0))
	require.Error(t, err)
	assert.True(t, IsFarmerNotFound(err))
	assert.Equal(t, 0, countRows(t, s, "farms"))
}

func TestInsertFarm_ReplacesStaleFarmID(t *testing.T) {
	s, _ := createTestStore(t)
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})

	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 1))
	out := mustInsert(t, s, model.EntityFarm, farmPayload("x", "B", 1))

	assert.True(t, out.Changed)
	assert.Equal(t, MsgInserted, out.Message)
	assert.Equal(t, []map[string]any{{"farm_id": "A", "farm_index": int64(1)}}, out.Data["replaced"])

	rows, err := s.db.Query("SELECT farm_id FROM farms WHERE farmer_name = 'x' AND farm_index = 1")
	require.NoError(t, err)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"B"}, ids)
}

func TestInsertFarm_ReplacesReindexedFarm(t *testing.T) {
	s, _ := createTestStore(t)
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})

	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 1))
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 2))

	assert.Equal(t, 1, countRows(t, s, "farms"))
	var index int
	require.NoError(t, s.db.QueryRow("SELECT farm_index FROM farms WHERE farm_id = 'A'").Scan(&index))
	assert.Equal(t, 2, index)
}

func TestInsertFarm_DeletesBothPartialMatches(t *testing.T) {
	s, _ := createTestStore(t)
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})

	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 1))
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "B", 2))

	// Shares the id of one row and the index of the other.
	out := mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 2))
	assert.Len(t, out.Data["replaced"], 2)
	assert.Equal(t, 1, countRows(t, s, "farms"))
}

func TestInsertFarm_ExactDuplicate(t *testing.T) {
	s, _ := createTestStore(t)
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})

	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 0))
	out := mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 0))

	assert.False(t, out.Changed)
	assert.Equal(t, MsgAlreadyExists, out.Message)
	assert.Equal(t, 1, countRows(t, s, "farms"))
}

func TestInsertFarm_ScopedToFarmer(t *testing.T) {
	s, _ := createTestStore(t)
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 1))

	// Replacing the farmer cascades to its farms.
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "y"})
	assert.Equal(t, 0, countRows(t, s, "farms"))

	mustInsert(t, s, model.EntityFarm, farmPayload("y", "A", 1))
	assert.Equal(t, 1, countRows(t, s, "farms"))
}

func eventPayload(data any) model.Payload {
	return model.Payload{
		"farmer_name":    "alice",
		"event_type":     "Farm",
		"event_datetime": "2024-04-04 15:02:41",
		"event_data":     data,
	}
}

func TestInsertEvent_Dedup(t *testing.T) {
	s, _ := createTestStore(t)

	out := mustInsert(t, s, model.EntityFarmerEvent, eventPayload(map[string]any{"Farm Index": 1, "Status": "ok"}))
	assert.True(t, out.Changed)
	assert.Equal(t, true, out.Data["inserted"])

	// Same event, keys in another order and the timestamp spelled differently.
	p := eventPayload(map[string]any{"Status": "ok", "Farm Index": json.Number("1")})
	p["event_datetime"] = "2024-04-04 15:02:41.000"
	out = mustInsert(t, s, model.EntityFarmerEvent, p)
	assert.False(t, out.Changed)
	assert.Equal(t, MsgAlreadyExists, out.Message)
	assert.Equal(t, false, out.Data["inserted"])

	assert.Equal(t, 1, countRows(t, s, "farmer_events"))
}

func TestInsertEvent_DistinctPayloads(t *testing.T) {
	s, _ := createTestStore(t)

	mustInsert(t, s, model.EntityFarmerEvent, eventPayload(map[string]any{"n": 1}))
	mustInsert(t, s, model.EntityFarmerEvent, eventPayload(map[string]any{"n": 2}))
	mustInsert(t, s, model.EntityFarmerEvent, eventPayload("plain text"))

	assert.Equal(t, 3, countRows(t, s, "farmer_events"))
}

func TestInsertEvent_NodeScoped(t *testing.T) {
	s, _ := createTestStore(t)

	p := model.Payload{
		"node_name":      "n1",
		"event_type":     "Sync",
		"event_datetime": "2024-04-04 15:02:41",
		"event_data":     map[string]any{"Best": 10},
	}
	mustInsert(t, s, model.EntityNodeEvent, p)
	mustInsert(t, s, model.EntityNodeEvent, p)

	assert.Equal(t, 1, countRows(t, s, "node_events"))
	var owner, data string
	require.NoError(t, s.db.QueryRow("SELECT node_name, event_data FROM node_events").Scan(&owner, &data))
	assert.Equal(t, "n1", owner)
	assert.Equal(t, `{"Best":10}`, data)
}

func TestInsertLogs_NeverDeduplicated(t *testing.T) {
	s, _ := createTestStore(t)

	logs := []struct {
		entity  model.Entity
		table   string
		payload model.Payload
	}{
		{model.EntityPlot, "plots", model.Payload{"farmer_name": "a", "farm_index": 0, "percentage": 53.4, "current_sector": 7, "plot_type": "Plotting", "plot_datetime": "2024-04-04 15:02:41"}},
		{model.EntityReward, "rewards", model.Payload{"farmer_name": "a", "farm_index": 0, "reward_type": "Attempt", "reward_datetime": "2024-04-04 15:02:41"}},
		{model.EntityError, "errors", model.Payload{"owner_name": "a", "error_text": "boom", "error_datetime": "2024-04-04 15:02:41"}},
		{model.EntityClaim, "claims", model.Payload{"node_name": "n", "slot_number": 9, "claim_type": "Vote", "claim_datetime": "2024-04-04 15:02:41"}},
		{model.EntityConsensus, "consensus", model.Payload{"node_name": "n", "status": "Synced", "peers": 3, "best_block": 10, "finalized_block": 9, "down_speed": 1.0, "up_speed": 2.0, "consensus_datetime": "2024-04-04 15:02:41"}},
	}

	for _, l := range logs {
		t.Run(l.table, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				out := mustInsert(t, s, l.entity, l.payload)
				assert.True(t, out.Changed)
			}
			assert.Equal(t, 3, countRows(t, s, l.table))
		})
	}
}

func TestInsertPlot_CompleteWithoutSector(t *testing.T) {
	s, _ := createTestStore(t)

	mustInsert(t, s, model.EntityPlot, model.Payload{
		"farmer_name": "a", "farm_index": 2, "percentage": 100.0,
		"plot_type": "Replotting", "plot_datetime": "2024-04-04 15:02:41.25",
	})

	var sector any
	var at string
	require.NoError(t, s.db.QueryRow("SELECT current_sector, plot_datetime FROM plots").Scan(&sector, &at))
	assert.Nil(t, sector)
	assert.Equal(t, "2024-04-04 15:02:41.250000", at)
}

func TestInsertConsensus_OmitsAbsentOptionals(t *testing.T) {
	s, _ := createTestStore(t)

	mustInsert(t, s, model.EntityConsensus, model.Payload{
		"node_name": "n", "status": "Syncing", "peers": 3, "best_block": 10,
		"finalized_block": 9, "down_speed": 1.5, "up_speed": 0, "consensus_datetime": "2024-04-04 15:02:41",
		"blocks_per_second": 2.5,
	})

	var target any
	var bps float64
	require.NoError(t, s.db.QueryRow("SELECT target_block, blocks_per_second FROM consensus").Scan(&target, &bps))
	assert.Nil(t, target)
	assert.Equal(t, 2.5, bps)
}

func TestInsertClaim_DefaultsToServerTime(t *testing.T) {
	s, _ := createTestStore(t)

	mustInsert(t, s, model.EntityClaim, model.Payload{"node_name": "n", "slot_number": 1, "claim_type": "Vote"})

	var at string
	require.NoError(t, s.db.QueryRow("SELECT claim_datetime FROM claims").Scan(&at))
	assert.Equal(t, "2024-04-04 12:00:00.000000", at)
}

func TestInsert_InvalidDatetimeStoresNothing(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Insert(context.Background(), model.EntityError, model.Payload{
		"owner_name": "a", "error_text": "boom", "error_datetime": "yesterday",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidDatetime)
	assert.Equal(t, 0, countRows(t, s, "errors"))
}

func TestUpdateFarm(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 0))

	out, err := s.Update(ctx, model.EntityFarm, model.Payload{"farmer_name": "x", "farm_index": 0})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, MsgNoChanges, out.Message)

	out, err = s.Update(ctx, model.EntityFarm, model.Payload{
		"farmer_name": "x", "farm_index": 0, "status": "Plotting", "allocated_space_gib": 512, "directory": nil,
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, MsgUpdated, out.Message)

	var status string
	var space float64
	var dir any
	require.NoError(t, s.db.QueryRow("SELECT status, allocated_space_gib, directory FROM farms").Scan(&status, &space, &dir))
	assert.Equal(t, "Plotting", status)
	assert.Equal(t, 512.0, space)
	assert.Nil(t, dir)

	out, err = s.Update(ctx, model.EntityFarm, model.Payload{"farmer_name": "x", "farm_index": 5, "status": "Gone"})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, MsgNoMatch, out.Message)
}

func TestUpdateFarmer_OnlyMutableFields(t *testing.T) {
	s, _ := createTestStore(t)
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x", "workers": 1})

	out, err := s.Update(context.Background(), model.EntityFarmer, model.Payload{
		"farmer_name": "x", "workers": 8, "creation_datetime": "1999-01-01 00:00:00",
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)

	var workers int
	var created string
	require.NoError(t, s.db.QueryRow("SELECT workers, creation_datetime FROM farmers").Scan(&workers, &created))
	assert.Equal(t, 8, workers)
	assert.Equal(t, "2024-04-04 12:00:00.000000", created)
}

func TestUpdate_UnsupportedForLogs(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Update(context.Background(), model.EntityPlot, model.Payload{"farmer_name": "a"})
	assert.True(t, IsUnsupported(err))

	_, err = s.Delete(context.Background(), model.EntityNodeEvent, model.Payload{"node_name": "a"})
	assert.True(t, IsUnsupported(err))
}

func TestDelete(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	out, err := s.Delete(ctx, model.EntityFarmer, model.Payload{"farmer_name": "nobody"})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, MsgNoChanges, out.Message)

	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 0))

	out, err = s.Delete(ctx, model.EntityFarm, model.Payload{"farmer_name": "x", "farm_id": "B", "farm_index": 0})
	require.NoError(t, err)
	assert.Equal(t, MsgNoChanges, out.Message)

	out, err = s.Delete(ctx, model.EntityFarm, model.Payload{"farmer_name": "x", "farm_id": "A", "farm_index": 0})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, MsgDeleted, out.Message)
	assert.Equal(t, 0, countRows(t, s, "farms"))
}

func TestDeleteAll(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		mustInsert(t, s, model.EntityError, model.Payload{"owner_name": "a", "error_text": "boom", "error_datetime": "2024-04-04 15:02:41"})
	}

	out, err := s.DeleteAll(ctx, model.EntityError)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, int64(4), out.Data["deleted"])
	assert.Equal(t, 0, countRows(t, s, "errors"))

	out, err = s.DeleteAll(ctx, model.EntityError)
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Equal(t, int64(0), out.Data["deleted"])
}

func TestWrite_StorageFailureRollsBack(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 0))
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "B", 1))

	// Renaming farm 1 to A collides with UNIQUE(farmer_name, farm_id).
	_, err := s.Update(ctx, model.EntityFarm, model.Payload{"farmer_name": "x", "farm_index": 1, "farm_id": "A", "status": "moved"})
	require.Error(t, err)
	assert.True(t, IsStorage(err))

	var status any
	require.NoError(t, s.db.QueryRow("SELECT status FROM farms WHERE farm_index = 1").Scan(&status))
	assert.Nil(t, status)
}

func TestInsertFarm_FailedInsertRestoresReplacedFarm(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, model.EntityFarmer, model.Payload{"farmer_name": "x"})
	mustInsert(t, s, model.EntityFarm, farmPayload("x", "A", 0))

	_, err := s.db.Exec(`CREATE TRIGGER reject_farm_index_1 BEFORE INSERT ON farms
		WHEN NEW.farm_index = 1
		BEGIN SELECT RAISE(ABORT, 'farm index 1 rejected'); END`)
	require.NoError(t, err)

	// A/1 conflicts with A/0 by farm id: the stale row is deleted, then
	// the insert aborts.
	_, err = s.Insert(ctx, model.EntityFarm, farmPayload("x", "A", 1))
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.Contains(t, err.Error(), "farm index 1 rejected")

	var farmID string
	var farmIndex int
	require.NoError(t, s.db.QueryRow("SELECT farm_id, farm_index FROM farms").Scan(&farmID, &farmIndex))
	assert.Equal(t, "A", farmID)
	assert.Equal(t, 0, farmIndex)
	assert.Equal(t, 1, countRows(t, s, "farms"))
}

func TestWrite_CancelledContext(t *testing.T) {
	s, _ := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Insert(ctx, model.EntityNode, model.Payload{"node_name": "n1"})
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.Equal(t, 0, countRows(t, s, "nodes"))
}
