// pkg/engine/generator.go
package engine

import (
	"fmt"

	"SiteRadar/pkg/model"
)

// RiskConfig 风险评分参数
// 具体数值可配置，不是硬编码语义的一部分
type RiskConfig struct {
	Base                map[model.AlertSeverity]int
	RestrictedZoneBonus int
	UnknownHandlerBonus int
	Cap                 int
}

// DefaultRiskConfig 默认风险评分参数
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		Base: map[model.AlertSeverity]int{
			model.SeverityCritical: 80,
			model.SeverityHigh:     60,
			model.SeverityMedium:   40,
			model.SeverityLow:      20,
		},
		RestrictedZoneBonus: 10,
		UnknownHandlerBonus: 5,
		Cap:                 100,
	}
}

// CostEstimator 损失估算函数，由区域/物资登记方注入，引擎不内置具体数值
type CostEstimator func(itemType string, severity model.AlertSeverity) float64

// TableCostEstimator 基于价值表的默认估算器：物资基准价值 × 严重程度系数
func TableCostEstimator(itemBase map[string]float64, defaultBase float64, multipliers map[model.AlertSeverity]float64) CostEstimator {
	return func(itemType string, severity model.AlertSeverity) float64 {
		base, ok := itemBase[itemType]
		if !ok {
			base = defaultBase
		}
		multiplier, ok := multipliers[severity]
		if !ok {
			multiplier = 1.0
		}
		return base * multiplier
	}
}

// Generator 告警生成器
// 汇聚一条事件的全部规则命中：定违规类型、取最高严重程度、算风险分与损失
type Generator struct {
	risk RiskConfig
	cost CostEstimator
}

// NewGenerator 创建告警生成器
func NewGenerator(risk RiskConfig, cost CostEstimator) *Generator {
	if risk.Base == nil {
		risk = DefaultRiskConfig()
	}
	if cost == nil {
		cost = func(string, model.AlertSeverity) float64 { return 0 }
	}
	return &Generator{risk: risk, cost: cost}
}

// ViolationType 从全部命中中取优先级最高的违规类别标签
// 区域 > 时段 > 搬运者 > 物资类型；全部命中规则仍记入审计链
func (g *Generator) ViolationType(matches []model.RuleMatch) string {
	best := model.CategoryItemType
	for _, m := range matches {
		for _, kind := range m.Matched {
			cond := model.Condition{Kind: kind}
			if cat := cond.Category(); cat < best {
				best = cat
			}
		}
	}
	return model.ViolationTypeFor(best)
}

// Severity 全部命中规则告警级别的最大值
func (g *Generator) Severity(matches []model.RuleMatch) model.AlertSeverity {
	severity := model.SeverityLow
	for _, m := range matches {
		severity = model.MaxSeverity(severity, m.Rule.AlertLevel)
	}
	return severity
}

// RiskScore 确定性风险评分
// 严重程度基础分 + 受限区域加成 + 未识别搬运者加成，封顶
func (g *Generator) RiskScore(severity model.AlertSeverity, zone *model.Zone, handler string) int {
	score := g.risk.Base[severity]
	if zone != nil && zone.Type == model.ZoneTypeRestricted {
		score += g.risk.RestrictedZoneBonus
	}
	if handler == "" || handler == model.HandlerUnknown {
		score += g.risk.UnknownHandlerBonus
	}
	if score > g.risk.Cap {
		score = g.risk.Cap
	}
	return score
}

// CostImpact 预估损失
func (g *Generator) CostImpact(itemType string, severity model.AlertSeverity) float64 {
	cost := g.cost(itemType, severity)
	if cost < 0 {
		return 0
	}
	return cost
}

// Notify 合并全部命中规则的通知角色（去重）
func (g *Generator) Notify(matches []model.RuleMatch) []string {
	seen := make(map[string]struct{})
	var roles []string
	for _, m := range matches {
		for _, role := range m.Rule.Notify {
			if _, ok := seen[role]; ok {
				continue
			}
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}
	return roles
}

// RuleIDs 全部命中规则的ID（审计链）
func (g *Generator) RuleIDs(matches []model.RuleMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Rule.ID)
	}
	return ids
}

// Describe 生成告警描述
func (g *Generator) Describe(event *model.MovementEvent, asset *model.Asset, violationType string) string {
	itemType := asset.ItemType
	if itemType == "" {
		itemType = "物资"
	}

	switch violationType {
	case model.ViolationZone:
		return fmt.Sprintf("%s %s 进入未授权区域 %s", itemType, event.AssetID, event.ToZone)
	case model.ViolationSchedule:
		return fmt.Sprintf("%s %s 在授权时段之外移动（%s -> %s）", itemType, event.AssetID, event.FromZone, event.ToZone)
	case model.ViolationHandler:
		return fmt.Sprintf("%s %s 由未授权搬运者 %s 移动", itemType, event.AssetID, event.Handler)
	default:
		return fmt.Sprintf("%s %s 出现违规移动（%s -> %s）", itemType, event.AssetID, event.FromZone, event.ToZone)
	}
}
