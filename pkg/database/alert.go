// pkg/database/alert.go
package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SiteRadar/pkg/model"
)

type AlertDB struct {
	db *gorm.DB
}

// Save 写入或更新告警（按主键覆盖，保留全量字段）
func (a *AlertDB) Save(alert *model.Alert) error {
	err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(alert).Error
	if err != nil {
		return fmt.Errorf("保存告警失败: %w", err)
	}
	return nil
}

func (a *AlertDB) GetByID(alertID string) (*model.Alert, error) {
	var alert model.Alert
	err := a.db.First(&alert, "id = ?", alertID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("获取告警失败: %w", err)
	}
	return &alert, nil
}

// ListOpen 加载全部未关闭告警（引擎启动时恢复状态用）
func (a *AlertDB) ListOpen() ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := a.db.Where("status IN ?", []model.AlertStatus{model.StatusActive, model.StatusInvestigating}).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询未关闭告警失败: %w", err)
	}
	return alerts, nil
}

func (a *AlertDB) GetByZone(zone string, limit int) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := a.db.Where("zone = ?", zone).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询区域告警失败: %w", err)
	}
	return alerts, nil
}

func (a *AlertDB) GetBySeverity(severity model.AlertSeverity, limit int) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := a.db.Where("severity = ?", severity).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询指定严重程度告警失败: %w", err)
	}
	return alerts, nil
}

func (a *AlertDB) GetByTimeRange(startTime, endTime time.Time, limit int) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := a.db.Where("created_at BETWEEN ? AND ?", startTime, endTime).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询时间范围告警失败: %w", err)
	}
	return alerts, nil
}

// GetStats 按违规类型统计最近N天的告警
func (a *AlertDB) GetStats(days int) (map[string]int64, error) {
	stats := make(map[string]int64)
	startTime := time.Now().AddDate(0, 0, -days)

	var typeStats []struct {
		ViolationType string `json:"violation_type"`
		Count         int64  `json:"count"`
	}

	err := a.db.Model(&model.Alert{}).
		Select("violation_type, COUNT(*) as count").
		Where("created_at >= ?", startTime).
		Group("violation_type").
		Find(&typeStats).Error
	if err != nil {
		return nil, fmt.Errorf("统计告警失败: %w", err)
	}

	for _, stat := range typeStats {
		stats[stat.ViolationType] = stat.Count
	}

	return stats, nil
}
