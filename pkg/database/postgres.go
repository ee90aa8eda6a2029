// pkg/database/postgres.go
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"SiteRadar/pkg/config"
	"SiteRadar/pkg/model"
)

// Postgres 主数据库连接（gorm）
type Postgres struct {
	db *gorm.DB
}

// NewPostgres 创建数据库连接并迁移核心表
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	dbCfg := cfg.Database.Postgres

	// 构建连接字符串
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 迁移核心表
	if err := db.AutoMigrate(&model.Zone{}, &model.Rule{}, &model.Alert{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close 关闭数据库连接
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Alert 告警持久化访问器
func (p *Postgres) Alert() *AlertDB {
	return &AlertDB{db: p.db}
}

// Rule 规则持久化访问器
func (p *Postgres) Rule() *RuleDB {
	return &RuleDB{db: p.db}
}

// Zone 区域持久化访问器
func (p *Postgres) Zone() *ZoneDB {
	return &ZoneDB{db: p.db}
}
