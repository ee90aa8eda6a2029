package repository

import (
	"sort"
	"sync"
	"time"

	"SiteRadar/pkg/model"
)

// ZoneRegistry 区域登记簿（内存存储，读多写少）
type ZoneRegistry struct {
	mu    sync.RWMutex
	zones map[string]*model.Zone
}

// NewZoneRegistry 创建区域登记簿
func NewZoneRegistry() *ZoneRegistry {
	return &ZoneRegistry{
		zones: make(map[string]*model.Zone),
	}
}

// Upsert 新增或更新区域，入库前完成校验
func (r *ZoneRegistry) Upsert(zone *model.Zone) error {
	if err := zone.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *zone
	if existing, ok := r.zones[zone.ID]; ok {
		stored.CreatedAt = existing.CreatedAt // 保持创建时间不变
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	r.zones[zone.ID] = &stored

	return nil
}

// Get 按ID获取区域
func (r *ZoneRegistry) Get(zoneID string) (*model.Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zone, ok := r.zones[zoneID]
	if !ok {
		return nil, false
	}
	copied := *zone
	return &copied, true
}

// List 返回全部区域，按ID升序
func (r *ZoneRegistry) List() []*model.Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zones := make([]*model.Zone, 0, len(r.zones))
	for _, zone := range r.zones {
		copied := *zone
		zones = append(zones, &copied)
	}
	sort.Slice(zones, func(i, j int) bool {
		return zones[i].ID < zones[j].ID
	})

	return zones
}

// Count 区域数量
func (r *ZoneRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.zones)
}
