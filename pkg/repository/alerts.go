package repository

import (
	"sync"

	"SiteRadar/pkg/model"
)

// openKey 未关闭告警的二级索引键
type openKey struct {
	assetID       string
	violationType string
}

// AlertStore 告警存储（内存）
// 写路径走乐观锁：读出副本、计算、带预期版本号提交；
// 版本不符返回 model.ErrMergeConflict，由调用方重试，绝不盲写覆盖
type AlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*model.Alert
	open   map[openKey]string // (assetId, violationType) -> alertId，仅未关闭告警
}

// NewAlertStore 创建告警存储
func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*model.Alert),
		open:   make(map[openKey]string),
	}
}

// Get 按ID获取告警副本
func (s *AlertStore) Get(alertID string) (model.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[alertID]
	if !ok {
		return model.Alert{}, false
	}
	return cloneAlert(alert), true
}

// FindOpen 查找 (assetId, violationType) 对应的未关闭告警
func (s *AlertStore) FindOpen(assetID, violationType string) (model.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alertID, ok := s.open[openKey{assetID, violationType}]
	if !ok {
		return model.Alert{}, false
	}
	alert, ok := s.alerts[alertID]
	if !ok {
		return model.Alert{}, false
	}
	return cloneAlert(alert), true
}

// Insert 写入新告警（版本号置1，维护未关闭索引）
// 同键已有未关闭告警时返回 ErrMergeConflict，调用方应改走合并路径
func (s *AlertStore) Insert(alert model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := openKey{alert.AssetID, alert.ViolationType}
	if alert.Open() {
		if _, exists := s.open[key]; exists {
			return model.ErrMergeConflict
		}
	}

	alert.Version = 1
	stored := cloneAlert(&alert)
	s.alerts[alert.ID] = &stored
	if alert.Open() {
		s.open[key] = alert.ID
	}

	return nil
}

// CompareAndSwap 带版本号提交更新
// expectedVersion 与存量不符说明并发方已改写，返回 ErrMergeConflict
func (s *AlertStore) CompareAndSwap(alert model.Alert, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.alerts[alert.ID]
	if !ok {
		return model.ErrNotFound
	}
	if existing.Version != expectedVersion {
		return model.ErrMergeConflict
	}

	alert.Version = expectedVersion + 1
	stored := cloneAlert(&alert)
	s.alerts[alert.ID] = &stored

	// 状态变化时同步未关闭索引
	key := openKey{alert.AssetID, alert.ViolationType}
	if alert.Open() {
		s.open[key] = alert.ID
	} else if s.open[key] == alert.ID {
		delete(s.open, key)
	}

	return nil
}

// AlertFilter 告警查询过滤条件
type AlertFilter struct {
	Status   model.AlertStatus
	Zone     string
	Severity model.AlertSeverity
}

// List 按过滤条件返回告警副本（无序，排序交给读侧的优先级器）
func (s *AlertStore) List(filter AlertFilter) []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		if filter.Zone != "" && alert.Zone != filter.Zone {
			continue
		}
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		result = append(result, cloneAlert(alert))
	}

	return result
}

// OpenCount 未关闭告警数量
func (s *AlertStore) OpenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.open)
}

// cloneAlert 深拷贝告警，切片字段不与存量共享
func cloneAlert(a *model.Alert) model.Alert {
	copied := *a
	copied.Notify = append([]string(nil), a.Notify...)
	copied.SourceEventIDs = append([]string(nil), a.SourceEventIDs...)
	copied.MatchedRuleIDs = append([]string(nil), a.MatchedRuleIDs...)
	return copied
}
