package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SiteRadar/pkg/model"
)

type RuleDB struct {
	db *gorm.DB
}

// Save 写入或更新规则
func (r *RuleDB) Save(rule *model.Rule) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rule).Error
	if err != nil {
		return fmt.Errorf("保存规则失败: %w", err)
	}
	return nil
}

// LoadEnabled 加载全部启用规则（引擎启动与定时重载用）
func (r *RuleDB) LoadEnabled() ([]*model.Rule, error) {
	var rules []*model.Rule
	err := r.db.Where("enabled = ?", true).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("加载启用规则失败: %w", err)
	}
	return rules, nil
}

// List 返回全部规则
func (r *RuleDB) List() ([]*model.Rule, error) {
	var rules []*model.Rule
	err := r.db.Order("id ASC").Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("查询规则失败: %w", err)
	}
	return rules, nil
}
