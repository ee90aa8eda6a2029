// pkg/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SiteRadar/pkg/model"
	"SiteRadar/pkg/repository"
)

// Options 引擎参数
type Options struct {
	Shards             int           // 物资分片锁条数
	MergeRetries       int           // 合并冲突内部重试上限
	AutoRegisterAssets bool          // 未知物资自动登记
	Risk               RiskConfig    // 风险评分参数
	Cost               CostEstimator // 损失估算器
}

// Engine 移动规则评估与告警生成引擎
// 同一物资的事件经分片锁串行处理，不同物资完全并行；
// 每条事件的处理是原子的，效果全部落定后才记入幂等日志
type Engine struct {
	zones  *repository.ZoneRegistry
	rules  *repository.RuleStore
	assets *repository.AssetRegistry
	alerts *repository.AlertStore
	events *repository.EventLog

	generator *Generator
	lifecycle *LifecycleManager
	logger    *zap.Logger

	shards       []sync.Mutex
	mergeRetries int
	autoRegister bool
}

// NewEngine 创建引擎
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if opts.Shards <= 0 {
		opts.Shards = 64
	}
	if opts.MergeRetries <= 0 {
		opts.MergeRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	alerts := repository.NewAlertStore()

	return &Engine{
		zones:        repository.NewZoneRegistry(),
		rules:        repository.NewRuleStore(),
		assets:       repository.NewAssetRegistry(),
		alerts:       alerts,
		events:       repository.NewEventLog(),
		generator:    NewGenerator(opts.Risk, opts.Cost),
		lifecycle:    NewLifecycleManager(alerts, logger),
		logger:       logger,
		shards:       make([]sync.Mutex, opts.Shards),
		mergeRetries: opts.MergeRetries,
		autoRegister: opts.AutoRegisterAssets,
	}
}

// shardFor 按物资ID选择分片锁
func (e *Engine) shardFor(assetID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(assetID))
	return &e.shards[h.Sum32()%uint32(len(e.shards))]
}

// IngestMovementEvent 处理一条移动事件（幂等）
// 重复事件返回 Ignored=true 且不产生任何写入
func (e *Engine) IngestMovementEvent(ctx context.Context, event *model.MovementEvent) (*model.IngestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	// 同一物资串行处理，物资状态与同键告警合并不会竞争
	shard := e.shardFor(event.AssetID)
	shard.Lock()
	defer shard.Unlock()

	if e.events.Seen(event.ID) {
		return &model.IngestResult{Ignored: true}, nil
	}

	asset, ok := e.assets.Get(event.AssetID)
	if !ok {
		if !e.autoRegister {
			return nil, &model.UnknownAssetError{AssetID: event.AssetID}
		}
		asset = &model.Asset{
			ID:          event.AssetID,
			CurrentZone: event.FromZone,
		}
		e.assets.Register(asset)
		e.logger.Info("自动登记未知物资", zap.String("asset_id", event.AssetID))
	}

	result := &model.IngestResult{}

	// 规则快照取一次，整条事件的评估看到同一套规则
	matches := MatchRules(event, asset, e.rules.SnapshotEnabled())
	if len(matches) > 0 {
		alert, merged, err := e.createOrMerge(event, asset, matches)
		if err != nil {
			return nil, err
		}
		if merged {
			result.Merged = append(result.Merged, alert)
		} else {
			result.Created = append(result.Created, alert)
		}
	}

	// 移动事件成功应用：更新物资状态并记入幂等日志
	e.assets.ApplyMovement(event.AssetID, event.ToZone, event.OccurredAt)
	e.events.MarkApplied(event.ID)

	return result, nil
}

// createOrMerge 对单条事件的全部命中执行一次创建或合并写
// 合并只允许并入未关闭告警；已关闭的不吸收新证据，改为新建
func (e *Engine) createOrMerge(event *model.MovementEvent, asset *model.Asset, matches []model.RuleMatch) (model.Alert, bool, error) {
	violationType := e.generator.ViolationType(matches)
	severity := e.generator.Severity(matches)

	zone, _ := e.zones.Get(event.ToZone)
	riskScore := e.generator.RiskScore(severity, zone, event.Handler)
	costImpact := e.generator.CostImpact(asset.ItemType, severity)

	var lastErr error
	for attempt := 0; attempt <= e.mergeRetries; attempt++ {
		open, exists := e.alerts.FindOpen(event.AssetID, violationType)
		if exists {
			merged := e.mergeInto(open, event, matches, severity, riskScore, costImpact)
			err := e.alerts.CompareAndSwap(merged, open.Version)
			if err == nil {
				e.logger.Info("告警已合并新证据",
					zap.String("alert_id", merged.ID),
					zap.String("event_id", event.ID),
					zap.String("violation_type", violationType),
				)
				merged.Version = open.Version + 1
				return merged, true, nil
			}
			if errors.Is(err, model.ErrMergeConflict) {
				lastErr = err
				continue
			}
			return model.Alert{}, false, err
		}

		created := model.Alert{
			ID:             uuid.New().String(),
			AssetID:        event.AssetID,
			Zone:           event.ToZone,
			ViolationType:  violationType,
			Severity:       severity,
			RiskScore:      riskScore,
			CostImpact:     costImpact,
			Description:    e.generator.Describe(event, asset, violationType),
			Status:         model.StatusActive,
			Notify:         e.generator.Notify(matches),
			SourceEventIDs: []string{event.ID},
			MatchedRuleIDs: e.generator.RuleIDs(matches),
			CreatedAt:      time.Now(),
			LastUpdatedAt:  time.Now(),
		}
		err := e.alerts.Insert(created)
		if err == nil {
			e.logger.Info("新建告警",
				zap.String("alert_id", created.ID),
				zap.String("asset_id", created.AssetID),
				zap.String("violation_type", violationType),
				zap.String("severity", string(severity)),
				zap.Int("risk_score", riskScore),
			)
			created.Version = 1
			return created, false, nil
		}
		if errors.Is(err, model.ErrMergeConflict) {
			lastErr = err
			continue // 并发方抢先建档，转为合并路径重试
		}
		return model.Alert{}, false, err
	}

	return model.Alert{}, false, fmt.Errorf("告警合并重试超限 (asset=%s, type=%s): %w",
		event.AssetID, violationType, lastErr)
}

// mergeInto 把新证据并入已有未关闭告警：严重程度与风险分只升不降
func (e *Engine) mergeInto(open model.Alert, event *model.MovementEvent, matches []model.RuleMatch,
	severity model.AlertSeverity, riskScore int, costImpact float64) model.Alert {

	merged := open
	if !merged.HasSourceEvent(event.ID) {
		merged.SourceEventIDs = append(merged.SourceEventIDs, event.ID)
	}
	for _, id := range e.generator.RuleIDs(matches) {
		found := false
		for _, existing := range merged.MatchedRuleIDs {
			if existing == id {
				found = true
				break
			}
		}
		if !found {
			merged.MatchedRuleIDs = append(merged.MatchedRuleIDs, id)
		}
	}
	merged.Severity = model.MaxSeverity(merged.Severity, severity)
	if riskScore > merged.RiskScore {
		merged.RiskScore = riskScore
	}
	if costImpact > merged.CostImpact {
		merged.CostImpact = costImpact
	}
	merged.Zone = event.ToZone // 最新违规发生地
	merged.LastUpdatedAt = time.Now()

	return merged
}

// UpsertRule 新增或编辑规则（零条件、畸形时段、同ID类别冲突均被拒绝）
func (e *Engine) UpsertRule(rule *model.Rule) error {
	if err := e.rules.Upsert(rule); err != nil {
		return err
	}
	e.logger.Info("规则已保存",
		zap.String("rule_id", rule.ID),
		zap.String("alert_level", string(rule.AlertLevel)),
		zap.Bool("enabled", rule.Enabled),
	)
	return nil
}

// ListRules 返回全部规则
func (e *Engine) ListRules() []*model.Rule {
	return e.rules.List()
}

// SetRuleEnabled 启用/停用规则
func (e *Engine) SetRuleEnabled(ruleID string, enabled bool) error {
	return e.rules.SetEnabled(ruleID, enabled)
}

// TransitionAlert 告警状态迁移
func (e *Engine) TransitionAlert(alertID string, target model.AlertStatus) (model.Alert, error) {
	return e.lifecycle.Transition(alertID, target)
}

// GetAlert 按ID获取告警
func (e *Engine) GetAlert(alertID string) (model.Alert, bool) {
	return e.alerts.Get(alertID)
}

// ListPriorityAlerts 分诊排序的告警列表
func (e *Engine) ListPriorityAlerts(filter repository.AlertFilter, limit int) []model.Alert {
	return Prioritize(e.alerts.List(filter), limit)
}

// UpsertZone 新增或更新区域
func (e *Engine) UpsertZone(zone *model.Zone) error {
	return e.zones.Upsert(zone)
}

// GetZone 按ID获取区域
func (e *Engine) GetZone(zoneID string) (*model.Zone, bool) {
	return e.zones.Get(zoneID)
}

// ListZones 返回全部区域
func (e *Engine) ListZones() []*model.Zone {
	return e.zones.List()
}

// RegisterAsset 登记物资
func (e *Engine) RegisterAsset(asset *model.Asset) {
	e.assets.Register(asset)
}

// GetAsset 按ID获取物资
func (e *Engine) GetAsset(assetID string) (*model.Asset, bool) {
	return e.assets.Get(assetID)
}

// RestoreAlerts 从持久层恢复告警（进程启动时调用一次）
func (e *Engine) RestoreAlerts(alerts []*model.Alert) error {
	for _, alert := range alerts {
		if err := e.alerts.Insert(*alert); err != nil {
			return fmt.Errorf("恢复告警 %s 失败: %w", alert.ID, err)
		}
		for _, eventID := range alert.SourceEventIDs {
			e.events.MarkApplied(eventID)
		}
	}
	return nil
}

// Stats 引擎统计信息
func (e *Engine) Stats() map[string]interface{} {
	stats := e.rules.Stats()
	stats["zone_count"] = e.zones.Count()
	stats["asset_count"] = e.assets.Count()
	stats["open_alerts"] = e.alerts.OpenCount()
	stats["applied_events"] = e.events.Count()
	return stats
}
