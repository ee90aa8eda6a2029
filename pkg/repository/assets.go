package repository

import (
	"sort"
	"sync"
	"time"

	"SiteRadar/pkg/model"
)

// AssetRegistry 物资登记簿（内存）
// 移动追踪状态的唯一持有者；位置字段只经 ApplyMovement 更新
type AssetRegistry struct {
	mu     sync.RWMutex
	assets map[string]*model.Asset
}

// NewAssetRegistry 创建物资登记簿
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		assets: make(map[string]*model.Asset),
	}
}

// Register 登记物资
func (r *AssetRegistry) Register(asset *model.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *asset
	r.assets[asset.ID] = &copied
}

// Get 按ID获取物资
func (r *AssetRegistry) Get(assetID string) (*model.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return nil, false
	}
	copied := *asset
	return &copied, true
}

// ApplyMovement 应用一次成功的移动：更新当前区域与最后移动时间
func (r *AssetRegistry) ApplyMovement(assetID, toZone string, movedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetID]
	if !ok {
		return false
	}
	asset.CurrentZone = toZone
	asset.LastMovedAt = movedAt
	return true
}

// List 返回全部物资，按ID升序
func (r *AssetRegistry) List() []*model.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := make([]*model.Asset, 0, len(r.assets))
	for _, asset := range r.assets {
		copied := *asset
		assets = append(assets, &copied)
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].ID < assets[j].ID
	})

	return assets
}

// Count 物资数量
func (r *AssetRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.assets)
}
