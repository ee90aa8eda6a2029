package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"SiteRadar/pkg/config"
	"SiteRadar/pkg/engine"
	"SiteRadar/pkg/messaging"
	"SiteRadar/pkg/model"
	"SiteRadar/pkg/repository"
)

// 端到端冒烟验证：内存引擎走一遍完整的事件->告警->排查流程，
// NATS可用时顺带验证消息收发
func main() {
	log.Println("开始系统验证...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/dev/app.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	eng := engine.NewEngine(engine.Options{
		Shards:       cfg.Engine.Shards,
		MergeRetries: cfg.Engine.MergeRetries,
	}, logger)

	seedEngine(eng)
	testEvaluation(eng)
	testLifecycle(eng)

	natsClient, err := messaging.NewNATSClient(cfg.NATS.URL, logger)
	if err != nil {
		log.Printf("连接NATS失败: %v，跳过NATS相关测试\n", err)
	} else {
		defer natsClient.Close()
		testNATS(natsClient)
	}

	log.Println("系统验证完成")
}

// seedEngine 灌入验证用的区域、物资和规则
func seedEngine(eng *engine.Engine) {
	zones := []*model.Zone{
		{ID: "zone-a", Name: "A库区", Type: model.ZoneTypeStorage},
		{ID: "zone-d", Name: "D危险品区", Type: model.ZoneTypeRestricted},
	}
	for _, zone := range zones {
		if err := eng.UpsertZone(zone); err != nil {
			log.Fatalf("写入区域失败: %v\n", err)
		}
	}

	eng.RegisterAsset(&model.Asset{ID: "asset-001", ItemType: "Steel Beams", CurrentZone: "zone-a"})

	rule := &model.Rule{
		ID:   "rule-001",
		Name: "禁入危险品区",
		Conditions: []model.Condition{
			{Kind: model.ConditionZoneEq, Value: "zone-d"},
		},
		AlertLevel: model.SeverityCritical,
		Notify:     []string{"site-manager"},
		Enabled:    true,
	}
	if err := eng.UpsertRule(rule); err != nil {
		log.Fatalf("写入规则失败: %v\n", err)
	}
}

// testEvaluation 验证事件评估与告警合并
func testEvaluation(eng *engine.Engine) {
	log.Println("测试规则评估...")

	ctx := context.Background()
	event := &model.MovementEvent{
		ID:         "evt-001",
		AssetID:    "asset-001",
		FromZone:   "zone-a",
		ToZone:     "zone-d",
		OccurredAt: time.Now(),
	}

	result, err := eng.IngestMovementEvent(ctx, event)
	if err != nil {
		log.Fatalf("事件处理失败: %v\n", err)
	}
	for _, alert := range result.Created {
		log.Printf("生成告警: 类型=%s, 级别=%s, 风险分=%d\n",
			alert.ViolationType, alert.Severity, alert.RiskScore)
	}

	// 同一事件重放应被幂等忽略
	replay, err := eng.IngestMovementEvent(ctx, event)
	if err != nil {
		log.Fatalf("事件重放失败: %v\n", err)
	}
	if !replay.Ignored {
		log.Println("警告: 重复事件未被忽略")
	} else {
		log.Println("重复事件已被幂等忽略")
	}

	alerts := eng.ListPriorityAlerts(repository.AlertFilter{}, 10)
	log.Printf("当前优先告警数: %d\n", len(alerts))
}

// testLifecycle 验证告警状态流转
func testLifecycle(eng *engine.Engine) {
	log.Println("测试告警生命周期...")

	alerts := eng.ListPriorityAlerts(repository.AlertFilter{Status: model.StatusActive}, 1)
	if len(alerts) == 0 {
		log.Println("没有可流转的告警")
		return
	}

	alert, err := eng.TransitionAlert(alerts[0].ID, model.StatusInvestigating)
	if err != nil {
		log.Fatalf("流转到排查中失败: %v\n", err)
	}
	alert, err = eng.TransitionAlert(alert.ID, model.StatusResolved)
	if err != nil {
		log.Fatalf("流转到已解决失败: %v\n", err)
	}
	log.Printf("告警 %s 已关闭\n", alert.ID)

	// 已解决的告警不允许再流转
	if _, err := eng.TransitionAlert(alert.ID, model.StatusActive); err == nil {
		log.Println("警告: 已解决告警被重新打开")
	} else {
		log.Println("已解决告警保持终态")
	}
}

// testNATS 验证移动事件的发布与订阅
func testNATS(client *messaging.NATSClient) {
	log.Println("测试NATS消息队列...")

	received := make(chan model.MovementEvent, 1)
	err := client.SubscribeMovements("verify-consumer", func(event model.MovementEvent) error {
		select {
		case received <- event:
		default:
		}
		return nil
	})
	if err != nil {
		log.Printf("订阅移动事件失败: %v\n", err)
		return
	}
	defer client.DeleteConsumer(messaging.MovementsStream, "verify-consumer")

	event := model.MovementEvent{
		ID:         "evt-nats-001",
		AssetID:    "asset-001",
		FromZone:   "zone-a",
		ToZone:     "zone-d",
		OccurredAt: time.Now(),
	}
	if err := client.PublishMovement(event); err != nil {
		log.Printf("发布移动事件失败: %v\n", err)
		return
	}

	select {
	case got := <-received:
		log.Printf("收到移动事件: 物资=%s, 目标区域=%s\n", got.AssetID, got.ToZone)
	case <-time.After(5 * time.Second):
		log.Println("未接收到移动事件")
	}
}
