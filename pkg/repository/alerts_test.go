package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteRadar/pkg/model"
)

func newAlert(id, assetID, violationType string, status model.AlertStatus) model.Alert {
	return model.Alert{
		ID:             id,
		AssetID:        assetID,
		Zone:           "zone-d",
		ViolationType:  violationType,
		Severity:       model.SeverityHigh,
		RiskScore:      70,
		Status:         status,
		SourceEventIDs: []string{"evt-1"},
		CreatedAt:      time.Now(),
	}
}

func TestAlertStoreInsertAndGet(t *testing.T) {
	store := NewAlertStore()

	err := store.Insert(newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive))
	require.NoError(t, err)

	got, ok := store.Get("a1")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, model.StatusActive, got.Status)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestAlertStoreInsertRejectsDuplicateOpen(t *testing.T) {
	store := NewAlertStore()

	require.NoError(t, store.Insert(newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive)))

	// 同 (assetId, violationType) 的第二条未关闭告警被拒绝
	err := store.Insert(newAlert("a2", "asset-1", model.ViolationZone, model.StatusActive))
	assert.ErrorIs(t, err, model.ErrMergeConflict)

	// 不同违规类型不冲突
	require.NoError(t, store.Insert(newAlert("a3", "asset-1", model.ViolationHandler, model.StatusActive)))
	// 不同物资不冲突
	require.NoError(t, store.Insert(newAlert("a4", "asset-2", model.ViolationZone, model.StatusActive)))
}

func TestAlertStoreFindOpen(t *testing.T) {
	store := NewAlertStore()
	require.NoError(t, store.Insert(newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive)))

	got, ok := store.FindOpen("asset-1", model.ViolationZone)
	require.True(t, ok)
	assert.Equal(t, "a1", got.ID)

	_, ok = store.FindOpen("asset-1", model.ViolationHandler)
	assert.False(t, ok)
}

func TestAlertStoreCompareAndSwap(t *testing.T) {
	store := NewAlertStore()
	require.NoError(t, store.Insert(newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive)))

	alert, _ := store.Get("a1")
	alert.RiskScore = 90
	require.NoError(t, store.CompareAndSwap(alert, 1))

	got, _ := store.Get("a1")
	assert.Equal(t, 90, got.RiskScore)
	assert.Equal(t, int64(2), got.Version)

	// 过期版本号提交被拒绝
	stale := got
	stale.RiskScore = 50
	err := store.CompareAndSwap(stale, 1)
	assert.ErrorIs(t, err, model.ErrMergeConflict)

	// 不存在的告警
	missing := newAlert("nope", "asset-9", model.ViolationZone, model.StatusActive)
	assert.ErrorIs(t, store.CompareAndSwap(missing, 1), model.ErrNotFound)
}

func TestAlertStoreOpenIndexFollowsStatus(t *testing.T) {
	store := NewAlertStore()
	require.NoError(t, store.Insert(newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive)))

	// 关闭后键释放
	alert, _ := store.Get("a1")
	alert.Status = model.StatusResolved
	require.NoError(t, store.CompareAndSwap(alert, alert.Version))

	_, ok := store.FindOpen("asset-1", model.ViolationZone)
	assert.False(t, ok)
	assert.Equal(t, 0, store.OpenCount())

	// 同键可以重新立案
	require.NoError(t, store.Insert(newAlert("a2", "asset-1", model.ViolationZone, model.StatusActive)))
	got, ok := store.FindOpen("asset-1", model.ViolationZone)
	require.True(t, ok)
	assert.Equal(t, "a2", got.ID)
}

func TestAlertStoreListFilter(t *testing.T) {
	store := NewAlertStore()
	a1 := newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive)
	a2 := newAlert("a2", "asset-2", model.ViolationHandler, model.StatusResolved)
	a2.Zone = "zone-b"
	a2.Severity = model.SeverityLow
	require.NoError(t, store.Insert(a1))
	require.NoError(t, store.Insert(a2))

	assert.Len(t, store.List(AlertFilter{}), 2)
	assert.Len(t, store.List(AlertFilter{Status: model.StatusActive}), 1)
	assert.Len(t, store.List(AlertFilter{Zone: "zone-b"}), 1)
	assert.Len(t, store.List(AlertFilter{Severity: model.SeverityHigh}), 1)
	assert.Len(t, store.List(AlertFilter{Status: model.StatusActive, Zone: "zone-b"}), 0)
}

func TestAlertStoreReturnsCopies(t *testing.T) {
	store := NewAlertStore()
	require.NoError(t, store.Insert(newAlert("a1", "asset-1", model.ViolationZone, model.StatusActive)))

	got, _ := store.Get("a1")
	got.SourceEventIDs[0] = "tampered"
	got.RiskScore = 0

	fresh, _ := store.Get("a1")
	assert.Equal(t, "evt-1", fresh.SourceEventIDs[0], "副本修改不应影响存量")
	assert.Equal(t, 70, fresh.RiskScore)
}
