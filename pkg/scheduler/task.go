package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SiteRadar/pkg/database"
	"SiteRadar/pkg/engine"
)

// Scheduler 任务调度器
type Scheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
	ruleDB *database.RuleDB
	logger *zap.Logger
}

// NewScheduler 创建任务调度器
func NewScheduler(eng *engine.Engine, ruleDB *database.RuleDB, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: eng,
		ruleDB: ruleDB,
		logger: logger,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() {
	// 定期从数据库重载规则（编辑只对之后的事件生效）
	s.cron.AddFunc("@every 1m", s.reloadRules)

	// 定期输出引擎统计
	s.cron.AddFunc("@every 5m", s.logStats)

	s.cron.Start()
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// reloadRules 从数据库同步规则到引擎
// 全量同步：停用状态也要带入，否则库里停用的规则在引擎里一直生效
func (s *Scheduler) reloadRules() {
	if s.ruleDB == nil {
		return
	}

	rules, err := s.ruleDB.List()
	if err != nil {
		s.logger.Warn("重载规则失败", zap.Error(err))
		return
	}

	loaded, enabled := 0, 0
	for _, rule := range rules {
		if err := s.engine.UpsertRule(rule); err != nil {
			s.logger.Warn("规则重载被拒绝",
				zap.String("rule_id", rule.ID),
				zap.Error(err),
			)
			continue
		}
		loaded++
		if rule.Enabled {
			enabled++
		}
	}

	s.logger.Info("规则重载完成", zap.Int("loaded", loaded), zap.Int("enabled", enabled))
}

// logStats 输出引擎统计信息
func (s *Scheduler) logStats() {
	s.logger.Info("引擎统计", zap.Any("stats", s.engine.Stats()))
}
