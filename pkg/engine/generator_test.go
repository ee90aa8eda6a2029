// pkg/engine/generator_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SiteRadar/pkg/model"
)

func matchWith(id string, level model.AlertSeverity, notify []string, kinds ...model.ConditionKind) model.RuleMatch {
	return model.RuleMatch{
		Rule: &model.Rule{
			ID:         id,
			AlertLevel: level,
			Notify:     notify,
		},
		Matched: kinds,
	}
}

func TestGeneratorViolationTypePrecedence(t *testing.T) {
	g := NewGenerator(DefaultRiskConfig(), nil)

	// 区域 > 时段 > 搬运者 > 物资类型
	matches := []model.RuleMatch{
		matchWith("r1", model.SeverityLow, nil, model.ConditionItemTypeEq),
		matchWith("r2", model.SeverityLow, nil, model.ConditionHandlerNotIn),
		matchWith("r3", model.SeverityLow, nil, model.ConditionZoneEq),
	}
	assert.Equal(t, model.ViolationZone, g.ViolationType(matches))

	matches = []model.RuleMatch{
		matchWith("r1", model.SeverityLow, nil, model.ConditionOutsideWindow),
		matchWith("r2", model.SeverityLow, nil, model.ConditionHandlerNotIn),
	}
	assert.Equal(t, model.ViolationSchedule, g.ViolationType(matches))

	matches = []model.RuleMatch{
		matchWith("r1", model.SeverityLow, nil, model.ConditionHandlerNotIn),
	}
	assert.Equal(t, model.ViolationHandler, g.ViolationType(matches))

	matches = []model.RuleMatch{
		matchWith("r1", model.SeverityLow, nil, model.ConditionItemTypeEq),
	}
	assert.Equal(t, model.ViolationItemType, g.ViolationType(matches))
}

func TestGeneratorSeverityTakesMax(t *testing.T) {
	g := NewGenerator(DefaultRiskConfig(), nil)

	matches := []model.RuleMatch{
		matchWith("r1", model.SeverityMedium, nil, model.ConditionZoneEq),
		matchWith("r2", model.SeverityCritical, nil, model.ConditionHandlerNotIn),
		matchWith("r3", model.SeverityLow, nil, model.ConditionItemTypeEq),
	}
	assert.Equal(t, model.SeverityCritical, g.Severity(matches))
}

func TestGeneratorRiskScore(t *testing.T) {
	g := NewGenerator(DefaultRiskConfig(), nil)
	restricted := &model.Zone{ID: "zone-d", Type: model.ZoneTypeRestricted}
	storage := &model.Zone{ID: "zone-a", Type: model.ZoneTypeStorage}

	// 基础分
	assert.Equal(t, 80, g.RiskScore(model.SeverityCritical, storage, "h1"))
	assert.Equal(t, 60, g.RiskScore(model.SeverityHigh, storage, "h1"))
	assert.Equal(t, 40, g.RiskScore(model.SeverityMedium, storage, "h1"))
	assert.Equal(t, 20, g.RiskScore(model.SeverityLow, storage, "h1"))

	// 受限区域 +10
	assert.Equal(t, 90, g.RiskScore(model.SeverityCritical, restricted, "h1"))
	// 未识别搬运者 +5
	assert.Equal(t, 85, g.RiskScore(model.SeverityCritical, storage, model.HandlerUnknown))
	assert.Equal(t, 85, g.RiskScore(model.SeverityCritical, storage, ""))
	// 同时叠加，100封顶
	assert.Equal(t, 95, g.RiskScore(model.SeverityCritical, restricted, model.HandlerUnknown))

	// 未登记区域不加成
	assert.Equal(t, 80, g.RiskScore(model.SeverityCritical, nil, "h1"))
}

func TestGeneratorRiskScoreCap(t *testing.T) {
	cfg := DefaultRiskConfig()
	cfg.Base[model.SeverityCritical] = 95
	g := NewGenerator(cfg, nil)
	restricted := &model.Zone{ID: "zone-d", Type: model.ZoneTypeRestricted}

	assert.Equal(t, 100, g.RiskScore(model.SeverityCritical, restricted, model.HandlerUnknown))
}

func TestGeneratorCostImpact(t *testing.T) {
	estimator := TableCostEstimator(
		map[string]float64{"Steel Beams": 15000},
		1000,
		map[model.AlertSeverity]float64{model.SeverityCritical: 2.5, model.SeverityLow: 0.5},
	)
	g := NewGenerator(DefaultRiskConfig(), estimator)

	assert.Equal(t, 37500.0, g.CostImpact("Steel Beams", model.SeverityCritical))
	assert.Equal(t, 500.0, g.CostImpact("Unknown Item", model.SeverityLow))
	// 表中没有的严重程度按系数1.0
	assert.Equal(t, 15000.0, g.CostImpact("Steel Beams", model.SeverityMedium))

	// 负值估算被钳到0
	negative := NewGenerator(DefaultRiskConfig(), func(string, model.AlertSeverity) float64 { return -1 })
	assert.Equal(t, 0.0, negative.CostImpact("Rebar", model.SeverityHigh))
}

func TestGeneratorNotifyDedup(t *testing.T) {
	g := NewGenerator(DefaultRiskConfig(), nil)

	matches := []model.RuleMatch{
		matchWith("r1", model.SeverityHigh, []string{"site-manager", "security"}, model.ConditionZoneEq),
		matchWith("r2", model.SeverityHigh, []string{"security", "safety-officer"}, model.ConditionZoneEq),
	}
	assert.Equal(t, []string{"site-manager", "security", "safety-officer"}, g.Notify(matches))
}

func TestGeneratorRuleIDs(t *testing.T) {
	g := NewGenerator(DefaultRiskConfig(), nil)

	matches := []model.RuleMatch{
		matchWith("r1", model.SeverityHigh, nil, model.ConditionZoneEq),
		matchWith("r2", model.SeverityHigh, nil, model.ConditionZoneEq),
	}
	assert.Equal(t, []string{"r1", "r2"}, g.RuleIDs(matches))
}
