// pkg/model/alert.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertStatus 告警状态
type AlertStatus string

const (
	StatusActive        AlertStatus = "active"
	StatusInvestigating AlertStatus = "investigating"
	StatusResolved      AlertStatus = "resolved"
)

// ValidAlertStatus 判断告警状态是否合法
func ValidAlertStatus(s AlertStatus) bool {
	switch s {
	case StatusActive, StatusInvestigating, StatusResolved:
		return true
	}
	return false
}

// 违规类型标签（取自各违规类别，区域 > 时段 > 搬运者 > 物资类型）
const (
	ViolationZone     = "Zone Violation"
	ViolationSchedule = "Unauthorized Movement"
	ViolationHandler  = "Unauthorized Handler"
	ViolationItemType = "Item Misplacement"
)

// ViolationTypeFor 违规类别对应的告警标签
func ViolationTypeFor(cat ViolationCategory) string {
	switch cat {
	case CategoryZone:
		return ViolationZone
	case CategorySchedule:
		return ViolationSchedule
	case CategoryHandler:
		return ViolationHandler
	default:
		return ViolationItemType
	}
}

// Alert 告警记录
// 同一 (assetId, violationType) 任意时刻至多存在一条未关闭告警，
// 新证据并入已有告警而不是重复创建；告警只会被关闭，不会被删除
type Alert struct {
	ID             string        `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID        string        `gorm:"type:varchar(50);not null;index" json:"asset_id"`
	Zone           string        `gorm:"type:varchar(50);index" json:"zone"` // 违规发生地
	ViolationType  string        `gorm:"type:varchar(50);not null;index" json:"violation_type"`
	Severity       AlertSeverity `gorm:"type:varchar(20);not null;index" json:"severity"`
	RiskScore      int           `gorm:"not null" json:"risk_score"`  // 0-100
	CostImpact     float64       `gorm:"not null" json:"cost_impact"` // 预估损失（非负）
	Description    string        `gorm:"type:text" json:"description"`
	Status         AlertStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Notify         []string      `gorm:"serializer:json;type:jsonb" json:"notify"`
	SourceEventIDs []string      `gorm:"serializer:json;type:jsonb" json:"source_event_ids"` // 审计与合并用
	MatchedRuleIDs []string      `gorm:"serializer:json;type:jsonb" json:"matched_rule_ids"`
	Version        int64         `gorm:"not null;default:1" json:"version"` // 乐观锁
	CreatedAt      time.Time     `gorm:"index:idx_alert_created" json:"created_at"`
	LastUpdatedAt  time.Time     `json:"last_updated_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (Alert) TableName() string {
	return "alerts"
}

// Open 告警是否处于未关闭状态（active 或 investigating）
func (a *Alert) Open() bool {
	return a.Status == StatusActive || a.Status == StatusInvestigating
}

// HasSourceEvent 告警证据链中是否已包含该事件
func (a *Alert) HasSourceEvent(eventID string) bool {
	for _, id := range a.SourceEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// IngestResult 单个移动事件的处理结果
type IngestResult struct {
	Created []Alert `json:"created"`
	Merged  []Alert `json:"merged"`
	Ignored bool    `json:"ignored"` // 重复事件被丢弃
}
