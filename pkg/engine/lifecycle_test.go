// pkg/engine/lifecycle_test.go
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"SiteRadar/pkg/model"
	"SiteRadar/pkg/repository"
)

func newLifecycleFixture(t *testing.T) (*repository.AlertStore, *LifecycleManager) {
	store := repository.NewAlertStore()
	err := store.Insert(model.Alert{
		ID:            "a1",
		AssetID:       "asset-1",
		ViolationType: model.ViolationZone,
		Severity:      model.SeverityHigh,
		Status:        model.StatusActive,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	return store, NewLifecycleManager(store, zap.NewNop())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.StatusActive, model.StatusInvestigating))
	assert.True(t, CanTransition(model.StatusActive, model.StatusResolved))
	assert.True(t, CanTransition(model.StatusInvestigating, model.StatusResolved))

	assert.False(t, CanTransition(model.StatusInvestigating, model.StatusActive))
	assert.False(t, CanTransition(model.StatusResolved, model.StatusActive))
	assert.False(t, CanTransition(model.StatusResolved, model.StatusInvestigating))
	assert.False(t, CanTransition(model.StatusActive, model.StatusActive))
}

func TestLifecycleTransition(t *testing.T) {
	_, lifecycle := newLifecycleFixture(t)

	alert, err := lifecycle.Transition("a1", model.StatusInvestigating)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInvestigating, alert.Status)

	alert, err = lifecycle.Transition("a1", model.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, alert.Status)
}

func TestLifecycleResolvedIsTerminal(t *testing.T) {
	store, lifecycle := newLifecycleFixture(t)

	_, err := lifecycle.Transition("a1", model.StatusResolved)
	require.NoError(t, err)

	_, err = lifecycle.Transition("a1", model.StatusActive)
	var terr *model.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.StatusResolved, terr.From)

	// 非法迁移不改变告警
	got, _ := store.Get("a1")
	assert.Equal(t, model.StatusResolved, got.Status)
}

func TestLifecycleRejectsUnknownStatus(t *testing.T) {
	_, lifecycle := newLifecycleFixture(t)

	_, err := lifecycle.Transition("a1", "archived")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestLifecycleAlertNotFound(t *testing.T) {
	_, lifecycle := newLifecycleFixture(t)

	_, err := lifecycle.Transition("missing", model.StatusResolved)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLifecyclePreservesConcurrentUpdate(t *testing.T) {
	store, lifecycle := newLifecycleFixture(t)

	// 模拟并发合并抢先提交了一个版本
	alert, _ := store.Get("a1")
	bumped := alert
	bumped.RiskScore = 95
	require.NoError(t, store.CompareAndSwap(bumped, alert.Version))

	got, err := lifecycle.Transition("a1", model.StatusInvestigating)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInvestigating, got.Status)
	assert.Equal(t, 95, got.RiskScore, "并发方的更新不应丢失")
}
