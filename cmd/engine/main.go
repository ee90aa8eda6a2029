package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"SiteRadar/pkg/config"
	"SiteRadar/pkg/database"
	"SiteRadar/pkg/engine"
	"SiteRadar/pkg/messaging"
	"SiteRadar/pkg/model"
	"SiteRadar/pkg/monitor"
	"SiteRadar/pkg/scheduler"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}

	logger := newLogger(cfg.App.Env)
	defer logger.Sync()
	logger.Info("启动移动规则评估引擎...", zap.String("env", cfg.App.Env))

	// 连接数据库
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

	// 连接NATS
	natsClient, err := messaging.NewNATSClient(cfg.NATS.URL, logger)
	if err != nil {
		logger.Fatal("连接NATS失败", zap.Error(err))
	}
	defer natsClient.Close()

	// 创建引擎
	eng := engine.NewEngine(engineOptions(cfg), logger)

	// 从数据库恢复区域、规则与未关闭告警
	if err := bootstrapEngine(eng, db, logger); err != nil {
		logger.Fatal("引擎初始化失败", zap.Error(err))
	}

	// 订阅移动事件
	err = natsClient.SubscribeMovements(cfg.NATS.ClientID+"-engine", func(event model.MovementEvent) error {
		result, err := eng.IngestMovementEvent(context.Background(), &event)
		if err != nil {
			logger.Warn("移动事件处理失败",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			return err
		}

		if result.Ignored {
			return nil
		}

		// 归档移动事件
		if err := tsdb.SaveMovement(&event); err != nil {
			logger.Warn("归档移动事件失败", zap.String("event_id", event.ID), zap.Error(err))
		}

		// 持久化并发布告警
		for _, alert := range append(result.Created, result.Merged...) {
			persisted := alert
			if err := db.Alert().Save(&persisted); err != nil {
				logger.Warn("持久化告警失败", zap.String("alert_id", alert.ID), zap.Error(err))
			}
			if err := natsClient.PublishAlert(alert); err != nil {
				logger.Warn("发布告警失败", zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}

		return nil
	})
	if err != nil {
		logger.Fatal("订阅移动事件失败", zap.Error(err))
	}

	// 启动调度器（定期重载规则、输出统计）
	sched := scheduler.NewScheduler(eng, db.Rule(), logger)
	sched.Start()
	defer sched.Stop()

	// 组件健康监控
	mon := monitor.NewMonitor(logger)
	mon.RegisterComponent("nats")
	mon.StartChecking("nats", func() (string, string) {
		if natsClient.IsConnected() {
			return monitor.StatusHealthy, ""
		}
		return monitor.StatusDown, "NATS连接断开"
	}, 30*time.Second)

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("正在关闭引擎...")
}

// newLogger 按环境创建日志器
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

// bootstrapEngine 从数据库恢复引擎状态
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

	// 未关闭告警必须恢复，否则重启后同键事件会重复开告警
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
