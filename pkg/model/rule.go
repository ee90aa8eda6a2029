// pkg/model/rule.go
package model

import (
	"strings"
	"time"
)

// AlertSeverity 告警严重程度
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// severityRank 严重程度排序值，用于取最大值
var severityRank = map[AlertSeverity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ValidSeverity 判断严重程度是否合法
func ValidSeverity(s AlertSeverity) bool {
	_, ok := severityRank[s]
	return ok
}

// SeverityRank 严重程度排序值（未知值返回0）
func SeverityRank(s AlertSeverity) int {
	return severityRank[s]
}

// MaxSeverity 取两者中更高的严重程度
func MaxSeverity(a, b AlertSeverity) AlertSeverity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// ConditionKind 规则条件变体标签
type ConditionKind string

const (
	ConditionItemTypeEq    ConditionKind = "item_type_eq"   // 物资类型等于（大小写不敏感）
	ConditionZoneEq        ConditionKind = "zone_eq"        // 移入指定区域
	ConditionZoneNeq       ConditionKind = "zone_neq"       // 移入指定区域以外的区域
	ConditionOutsideWindow ConditionKind = "outside_window" // 发生在授权时段之外
	ConditionHandlerNotIn  ConditionKind = "handler_not_in" // 搬运者不在授权名单内（或未识别）
)

// ViolationCategory 违规类别，决定告警的 violationType 归属
type ViolationCategory int

// 类别优先级：区域 > 时段 > 搬运者 > 物资类型（数值越小优先级越高）
const (
	CategoryZone ViolationCategory = iota
	CategorySchedule
	CategoryHandler
	CategoryItemType
)

// Condition 规则条件（带标签变体）
// 按 Kind 使用对应字段：Value 用于 item_type_eq / zone_eq / zone_neq，
// Window 用于 outside_window，Handlers 用于 handler_not_in
type Condition struct {
	Kind     ConditionKind `json:"kind"`
	Value    string        `json:"value,omitempty"`
	Window   *TimeWindow   `json:"window,omitempty"`
	Handlers []string      `json:"handlers,omitempty"`
}

// Category 条件所属的违规类别
func (c Condition) Category() ViolationCategory {
	switch c.Kind {
	case ConditionZoneEq, ConditionZoneNeq:
		return CategoryZone
	case ConditionOutsideWindow:
		return CategorySchedule
	case ConditionHandlerNotIn:
		return CategoryHandler
	default:
		return CategoryItemType
	}
}

// Validate 校验单个条件
func (c Condition) Validate() error {
	switch c.Kind {
	case ConditionItemTypeEq, ConditionZoneEq, ConditionZoneNeq:
		if c.Value == "" {
			return &ValidationError{Field: "conditions", Reason: string(c.Kind) + " 条件缺少比较值"}
		}
	case ConditionOutsideWindow:
		if c.Window == nil {
			return &ValidationError{Field: "conditions", Reason: "outside_window 条件缺少时段"}
		}
		if err := c.Window.Validate(); err != nil {
			return &ValidationError{Field: "conditions", Reason: err.Error()}
		}
	case ConditionHandlerNotIn:
		if len(c.Handlers) == 0 {
			return &ValidationError{Field: "conditions", Reason: "handler_not_in 条件缺少授权名单"}
		}
	default:
		return &ValidationError{Field: "conditions", Reason: "未知的条件类型: " + string(c.Kind)}
	}
	return nil
}

// Holds 判断条件对给定的移动事件是否成立
// 条件描述的是"违规谓词"：成立即表示该维度出现违规
func (c Condition) Holds(event *MovementEvent, asset *Asset) bool {
	switch c.Kind {
	case ConditionItemTypeEq:
		return strings.EqualFold(asset.ItemType, c.Value)
	case ConditionZoneEq:
		return event.ToZone == c.Value
	case ConditionZoneNeq:
		return event.ToZone != c.Value
	case ConditionOutsideWindow:
		return c.Window != nil && !c.Window.Contains(event.OccurredAt)
	case ConditionHandlerNotIn:
		if event.Handler == "" || event.Handler == HandlerUnknown {
			return true
		}
		for _, h := range c.Handlers {
			if h == event.Handler {
				return false
			}
		}
		return true
	}
	return false
}

// Rule 移动规则
// 所有条件同时成立才算命中；未设置的维度视为通配
type Rule struct {
	ID         string        `gorm:"primaryKey" json:"id"`
	Name       string        `gorm:"not null" json:"name"`
	Conditions []Condition   `gorm:"serializer:json;type:jsonb" json:"conditions"`
	AlertLevel AlertSeverity `gorm:"type:varchar(20);not null" json:"alert_level"`
	Notify     []string      `gorm:"serializer:json;type:jsonb" json:"notify"` // 通知的干系人角色
	Enabled    bool          `gorm:"default:true;index" json:"enabled"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Validate 校验规则定义
// 零条件规则会命中所有事件，创建时直接拒绝
func (r *Rule) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Reason: "规则ID不能为空"}
	}
	if len(r.Conditions) == 0 {
		return &ValidationError{Field: "conditions", Reason: "规则至少需要一个条件"}
	}
	for _, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if !ValidSeverity(r.AlertLevel) {
		return &ValidationError{Field: "alert_level", Reason: "未知的告警级别: " + string(r.AlertLevel)}
	}
	return nil
}

// PrimaryCategory 规则条件中优先级最高的违规类别
func (r *Rule) PrimaryCategory() ViolationCategory {
	best := CategoryItemType
	for _, c := range r.Conditions {
		if cat := c.Category(); cat < best {
			best = cat
		}
	}
	return best
}

// RuleMatch 单条规则命中结果（派生值，不持久化）
type RuleMatch struct {
	Rule    *Rule           `json:"rule"`
	Matched []ConditionKind `json:"matched"`
}
