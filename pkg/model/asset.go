package model

import (
	"time"
)

// Asset 被追踪的物资
// currentZone / lastMovedAt 仅由成功应用的移动事件更新
type Asset struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ItemType    string    `gorm:"type:varchar(50);index" json:"item_type"`
	CurrentZone string    `gorm:"type:varchar(50);index" json:"current_zone"`
	LastMovedAt time.Time `json:"last_moved_at"`
}

// MovementEvent 物资移动事件（不可变事实）
// eventId 作为幂等键，重复投递会被静默丢弃
type MovementEvent struct {
	ID             string    `json:"id"`
	AssetID        string    `json:"asset_id"`
	FromZone       string    `json:"from_zone"`
	ToZone         string    `json:"to_zone"`
	Handler        string    `json:"handler"` // 人员或载具ID，可能为 "unknown"
	OccurredAt     time.Time `json:"occurred_at"`
	SequenceNumber int64     `json:"sequence_number"` // 单物资内单调递增
}

// HandlerUnknown 未识别的搬运者标识
const HandlerUnknown = "unknown"

// Validate 校验移动事件的必填字段
func (e *MovementEvent) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "事件ID不能为空"}
	}
	if e.AssetID == "" {
		return &ValidationError{Field: "asset_id", Reason: "物资ID不能为空"}
	}
	if e.ToZone == "" {
		return &ValidationError{Field: "to_zone", Reason: "目标区域不能为空"}
	}
	if e.OccurredAt.IsZero() {
		return &ValidationError{Field: "occurred_at", Reason: "事件时间不能为空"}
	}
	return nil
}
