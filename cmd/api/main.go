package main

import (
	"go.uber.org/zap"

	"SiteRadar/pkg/api"
	"SiteRadar/pkg/config"
	"SiteRadar/pkg/database"
	"SiteRadar/pkg/engine"
	"SiteRadar/pkg/model"
)

func main() {
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}

	logger := newLogger(cfg.App.Env)
	defer logger.Sync()

	logger.Info("启动API服务",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.API.Port),
	)

	db, err := database.NewPostgres(cfg)
	if err != nil {
		logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	tsdb, err := database.NewTimescaleDB(cfg)
	if err != nil {
		logger.Fatal("连接时序库失败", zap.Error(err))
	}
	defer tsdb.Close()

	eng := engine.NewEngine(engineOptions(cfg), logger)
	if err := bootstrapEngine(eng, db, logger); err != nil {
		logger.Fatal("恢复引擎状态失败", zap.Error(err))
	}

	handlers := api.NewHandlers(eng, db, tsdb, logger)
	server := api.NewServer(cfg.API.Port, logger)
	server.SetupRoutes(handlers)

	server.Start()
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("创建日志器失败: " + err.Error())
	}
	return logger
}

// engineOptions 由配置构建引擎参数
func engineOptions(cfg *config.Config) engine.Options {
	risk := engine.DefaultRiskConfig()
	if cfg.Engine.Risk.BaseCritical > 0 {
		risk.Base = map[model.AlertSeverity]int{
			model.SeverityLow:      cfg.Engine.Risk.BaseLow,
			model.SeverityMedium:   cfg.Engine.Risk.BaseMedium,
			model.SeverityHigh:     cfg.Engine.Risk.BaseHigh,
			model.SeverityCritical: cfg.Engine.Risk.BaseCritical,
		}
		risk.RestrictedZoneBonus = cfg.Engine.Risk.RestrictedZoneBonus
		risk.UnknownHandlerBonus = cfg.Engine.Risk.UnknownHandlerBonus
		risk.Cap = cfg.Engine.Risk.Cap
	}

	multipliers := make(map[model.AlertSeverity]float64, len(cfg.Engine.Cost.Multipliers))
	for severity, m := range cfg.Engine.Cost.Multipliers {
		multipliers[model.AlertSeverity(severity)] = m
	}

	return engine.Options{
		Shards:             cfg.Engine.Shards,
		MergeRetries:       cfg.Engine.MergeRetries,
		AutoRegisterAssets: cfg.Engine.AutoRegisterAssets,
		Risk:               risk,
		Cost:               engine.TableCostEstimator(cfg.Engine.Cost.ItemBase, cfg.Engine.Cost.DefaultBase, multipliers),
	}
}

// bootstrapEngine 从数据库恢复区域、规则与未关闭告警
// API进程需要完整的告警状态才能支撑排查与列表接口
func bootstrapEngine(eng *engine.Engine, db *database.Postgres, logger *zap.Logger) error {
	zones, err := db.Zone().List()
	if err != nil {
		return err
	}
	for _, zone := range zones {
		if err := eng.UpsertZone(zone); err != nil {
			logger.Warn("区域加载被拒绝", zap.String("zone_id", zone.ID), zap.Error(err))
		}
	}

	rules, err := db.Rule().LoadEnabled()
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if err := eng.UpsertRule(rule); err != nil {
			logger.Warn("规则加载被拒绝", zap.String("rule_id", rule.ID), zap.Error(err))
		}
	}

	alerts, err := db.Alert().ListOpen()
	if err != nil {
		return err
	}
	if err := eng.RestoreAlerts(alerts); err != nil {
		return err
	}

	logger.Info("引擎状态已恢复",
		zap.Int("zones", len(zones)),
		zap.Int("rules", len(rules)),
		zap.Int("open_alerts", len(alerts)),
	)
	return nil
}
