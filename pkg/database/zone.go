package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SiteRadar/pkg/model"
)

type ZoneDB struct {
	db *gorm.DB
}

// Save 写入或更新区域
func (z *ZoneDB) Save(zone *model.Zone) error {
	err := z.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(zone).Error
	if err != nil {
		return fmt.Errorf("保存区域失败: %w", err)
	}
	return nil
}

// List 返回全部区域
func (z *ZoneDB) List() ([]*model.Zone, error) {
	var zones []*model.Zone
	err := z.db.Order("id ASC").Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("查询区域失败: %w", err)
	}
	return zones, nil
}
