package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteRadar/pkg/model"
)

func zoneRule(id string) *model.Rule {
	return &model.Rule{
		ID:         id,
		Name:       "禁入规则 " + id,
		Conditions: []model.Condition{{Kind: model.ConditionZoneEq, Value: "zone-d"}},
		AlertLevel: model.SeverityHigh,
		Enabled:    true,
	}
}

func TestRuleStoreUpsertValidates(t *testing.T) {
	store := NewRuleStore()

	require.NoError(t, store.Upsert(zoneRule("r1")))

	bad := zoneRule("r2")
	bad.Conditions = nil
	assert.Error(t, store.Upsert(bad), "零条件规则应被拒绝")

	bad = zoneRule("r3")
	bad.AlertLevel = "urgent"
	assert.Error(t, store.Upsert(bad))
}

func TestRuleStoreUpsertRejectsCategoryChange(t *testing.T) {
	store := NewRuleStore()
	require.NoError(t, store.Upsert(zoneRule("r1")))

	// 编辑允许：类别不变
	edited := zoneRule("r1")
	edited.AlertLevel = model.SeverityCritical
	require.NoError(t, store.Upsert(edited))

	// 同ID改成搬运者类别：会改变历史告警的归并语义，拒绝
	changed := zoneRule("r1")
	changed.Conditions = []model.Condition{{Kind: model.ConditionHandlerNotIn, Handlers: []string{"h1"}}}
	err := store.Upsert(changed)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRuleStoreSnapshotEnabled(t *testing.T) {
	store := NewRuleStore()
	require.NoError(t, store.Upsert(zoneRule("r2")))
	require.NoError(t, store.Upsert(zoneRule("r1")))
	disabled := zoneRule("r0")
	disabled.Enabled = false
	require.NoError(t, store.Upsert(disabled))

	snapshot := store.SnapshotEnabled()
	require.Len(t, snapshot, 2)
	// 按规则ID升序，评估顺序可复现
	assert.Equal(t, "r1", snapshot[0].ID)
	assert.Equal(t, "r2", snapshot[1].ID)
}

func TestRuleStoreSnapshotUnaffectedByLaterEdits(t *testing.T) {
	store := NewRuleStore()
	require.NoError(t, store.Upsert(zoneRule("r1")))

	snapshot := store.SnapshotEnabled()
	require.Len(t, snapshot, 1)
	assert.Equal(t, model.SeverityHigh, snapshot[0].AlertLevel)

	edited := zoneRule("r1")
	edited.AlertLevel = model.SeverityCritical
	require.NoError(t, store.Upsert(edited))

	// 已发放的快照保持原样
	assert.Equal(t, model.SeverityHigh, snapshot[0].AlertLevel)

	fresh := store.SnapshotEnabled()
	assert.Equal(t, model.SeverityCritical, fresh[0].AlertLevel)
}

func TestRuleStoreSetEnabled(t *testing.T) {
	store := NewRuleStore()
	require.NoError(t, store.Upsert(zoneRule("r1")))

	require.NoError(t, store.SetEnabled("r1", false))
	assert.Empty(t, store.SnapshotEnabled())

	require.NoError(t, store.SetEnabled("r1", true))
	assert.Len(t, store.SnapshotEnabled(), 1)

	assert.ErrorIs(t, store.SetEnabled("missing", false), model.ErrNotFound)
}

func TestRuleStoreStats(t *testing.T) {
	store := NewRuleStore()
	require.NoError(t, store.Upsert(zoneRule("r1")))
	disabled := zoneRule("r2")
	disabled.Enabled = false
	require.NoError(t, store.Upsert(disabled))

	stats := store.Stats()
	assert.Equal(t, 2, stats["total_rules"])
	assert.Equal(t, 1, stats["enabled_rules"])
}
