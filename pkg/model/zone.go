// pkg/model/zone.go
package model

import (
	"time"
)

// ZoneType 区域类型枚举
type ZoneType string

const (
	ZoneTypeStorage      ZoneType = "storage"
	ZoneTypeConstruction ZoneType = "construction"
	ZoneTypeRestricted   ZoneType = "restricted"
	ZoneTypeDelivery     ZoneType = "delivery"
)

// ValidZoneType 判断区域类型是否合法
func ValidZoneType(t ZoneType) bool {
	switch t {
	case ZoneTypeStorage, ZoneTypeConstruction, ZoneTypeRestricted, ZoneTypeDelivery:
		return true
	}
	return false
}

// Zone 工地区域
// 核心引擎只关心身份、类型、授权时段与授权载具，几何信息由展示层维护
type Zone struct {
	ID                 string      `gorm:"primaryKey" json:"id"`
	Name               string      `gorm:"not null" json:"name"`
	Type               ZoneType    `gorm:"type:varchar(20);not null;index" json:"type"`
	Schedule           *TimeWindow `gorm:"serializer:json;type:jsonb" json:"schedule,omitempty"` // nil 表示全天开放
	AuthorizedVehicles []string    `gorm:"serializer:json;type:jsonb" json:"authorized_vehicles"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Validate 校验区域定义
func (z *Zone) Validate() error {
	if z.ID == "" {
		return &ValidationError{Field: "id", Reason: "区域ID不能为空"}
	}
	if !ValidZoneType(z.Type) {
		return &ValidationError{Field: "type", Reason: "未知的区域类型: " + string(z.Type)}
	}
	if z.Schedule != nil {
		if err := z.Schedule.Validate(); err != nil {
			return &ValidationError{Field: "schedule", Reason: err.Error()}
		}
	}
	return nil
}

// Unrestricted 区域是否全天开放
func (z *Zone) Unrestricted() bool {
	return z.Schedule == nil
}
