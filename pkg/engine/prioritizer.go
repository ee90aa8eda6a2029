// pkg/engine/prioritizer.go
package engine

import (
	"container/heap"
	"sort"

	"SiteRadar/pkg/model"
)

// alertLess 告警三级排序：风险分降序，创建时间降序（新的在前），ID升序兜底
// 排序键完全确定，列表顺序与内部处理顺序无关
func alertLess(a, b *model.Alert) bool {
	if a.RiskScore != b.RiskScore {
		return a.RiskScore > b.RiskScore
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// alertHeap 小顶堆（堆顶是当前K个中优先级最低的一条）
type alertHeap []model.Alert

func (h alertHeap) Len() int { return len(h) }
func (h alertHeap) Less(i, j int) bool {
	// 堆序与展示序相反，便于淘汰最差项
	return alertLess(&h[j], &h[i])
}
func (h alertHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *alertHeap) Push(x interface{}) {
	*h = append(*h, x.(model.Alert))
}

func (h *alertHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Prioritize 对告警做分诊排序，limit <= 0 表示不限量
// 小K场景用有界堆（O(n log K)），避免整体排序
func Prioritize(alerts []model.Alert, limit int) []model.Alert {
	if limit <= 0 || limit >= len(alerts) {
		sorted := append([]model.Alert(nil), alerts...)
		sort.Slice(sorted, func(i, j int) bool {
			return alertLess(&sorted[i], &sorted[j])
		})
		if limit > 0 && limit < len(sorted) {
			sorted = sorted[:limit]
		}
		return sorted
	}

	h := make(alertHeap, 0, limit+1)
	heap.Init(&h)
	for _, alert := range alerts {
		heap.Push(&h, alert)
		if h.Len() > limit {
			heap.Pop(&h) // 淘汰当前最差
		}
	}

	// 依次弹出得到升序，反转成展示序
	result := make([]model.Alert, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(model.Alert)
	}
	return result
}
