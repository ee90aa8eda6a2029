// pkg/engine/lifecycle.go
package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"SiteRadar/pkg/model"
	"SiteRadar/pkg/repository"
)

// allowedTransitions 告警状态机
// resolved 为终态：已关闭的事件只能通过新告警重新立案，不允许回迁
var allowedTransitions = map[model.AlertStatus][]model.AlertStatus{
	model.StatusActive:        {model.StatusInvestigating, model.StatusResolved},
	model.StatusInvestigating: {model.StatusResolved},
	model.StatusResolved:      {},
}

// CanTransition 判断状态迁移是否允许
func CanTransition(from, to model.AlertStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LifecycleManager 告警生命周期管理
// 状态字段唯一的合法修改入口
type LifecycleManager struct {
	store  *repository.AlertStore
	logger *zap.Logger
}

// NewLifecycleManager 创建生命周期管理器
func NewLifecycleManager(store *repository.AlertStore, logger *zap.Logger) *LifecycleManager {
	return &LifecycleManager{
		store:  store,
		logger: logger,
	}
}

// Transition 执行状态迁移
// 非法迁移返回 InvalidTransitionError，告警保持原状；
// 与合并写并发时按版本号重试，不丢失任何一方的更新
func (m *LifecycleManager) Transition(alertID string, target model.AlertStatus) (model.Alert, error) {
	if !model.ValidAlertStatus(target) {
		return model.Alert{}, &model.ValidationError{Field: "status", Reason: "未知的告警状态: " + string(target)}
	}

	for {
		alert, ok := m.store.Get(alertID)
		if !ok {
			return model.Alert{}, model.ErrNotFound
		}

		if !CanTransition(alert.Status, target) {
			return model.Alert{}, &model.InvalidTransitionError{
				AlertID: alertID,
				From:    alert.Status,
				To:      target,
			}
		}

		expected := alert.Version
		from := alert.Status
		alert.Status = target
		alert.LastUpdatedAt = time.Now()

		err := m.store.CompareAndSwap(alert, expected)
		if err == nil {
			m.logger.Info("告警状态迁移完成",
				zap.String("alert_id", alertID),
				zap.String("from", string(from)),
				zap.String("to", string(target)),
			)
			return alert, nil
		}
		if errors.Is(err, model.ErrMergeConflict) {
			continue // 并发合并抢先提交，重读后重试
		}
		return model.Alert{}, err
	}
}
