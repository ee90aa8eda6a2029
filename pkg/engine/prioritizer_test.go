// pkg/engine/prioritizer_test.go
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteRadar/pkg/model"
)

func priorityAlert(id string, riskScore int, createdAt time.Time) model.Alert {
	return model.Alert{
		ID:        id,
		RiskScore: riskScore,
		CreatedAt: createdAt,
	}
}

func TestPrioritizeOrdering(t *testing.T) {
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	alerts := []model.Alert{
		priorityAlert("a3", 60, base),
		priorityAlert("a1", 90, base),
		priorityAlert("a2", 90, base.Add(time.Hour)), // 同分时新的在前
		priorityAlert("a4", 60, base),                // 与a3完全同键，按ID升序兜底
	}

	sorted := Prioritize(alerts, 0)
	require.Len(t, sorted, 4)
	assert.Equal(t, "a2", sorted[0].ID)
	assert.Equal(t, "a1", sorted[1].ID)
	assert.Equal(t, "a3", sorted[2].ID)
	assert.Equal(t, "a4", sorted[3].ID)
}

func TestPrioritizeTopK(t *testing.T) {
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	var alerts []model.Alert
	for i := 0; i < 50; i++ {
		alerts = append(alerts, priorityAlert(
			string(rune('a'+i%26))+string(rune('0'+i/26)),
			i*2,
			base.Add(time.Duration(i)*time.Minute),
		))
	}

	full := Prioritize(alerts, 0)
	topK := Prioritize(alerts, 5)

	// 有界堆结果与整体排序的前缀一致
	require.Len(t, topK, 5)
	assert.Equal(t, full[:5], topK)
}

func TestPrioritizeLimitBeyondLength(t *testing.T) {
	alerts := []model.Alert{
		priorityAlert("a1", 50, time.Now()),
		priorityAlert("a2", 80, time.Now()),
	}

	sorted := Prioritize(alerts, 10)
	require.Len(t, sorted, 2)
	assert.Equal(t, "a2", sorted[0].ID)
}

func TestPrioritizeDoesNotMutateInput(t *testing.T) {
	alerts := []model.Alert{
		priorityAlert("a1", 10, time.Now()),
		priorityAlert("a2", 90, time.Now()),
	}

	Prioritize(alerts, 0)
	assert.Equal(t, "a1", alerts[0].ID, "输入切片不应被重排")
}

func TestPrioritizeEmpty(t *testing.T) {
	assert.Empty(t, Prioritize(nil, 0))
	assert.Empty(t, Prioritize(nil, 5))
}
