package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"SiteRadar/pkg/config"
	"SiteRadar/pkg/model"
)

// TimescaleDB 移动事件时序库连接
// 移动事件归档为分析读路径（区域活跃度、违规趋势）服务
type TimescaleDB struct {
	db *sql.DB
}

// NewTimescaleDB 创建时序库连接
func NewTimescaleDB(cfg *config.Config) (*TimescaleDB, error) {
	dbCfg := cfg.Database.Postgres

	// 构建连接字符串
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	// 连接数据库
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	t := &TimescaleDB{db: db}
	if err := t.ensureSchema(); err != nil {
		return nil, err
	}

	return t, nil
}

// ensureSchema 建表（存在则跳过）
func (t *TimescaleDB) ensureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS movement_events (
			event_id        VARCHAR(64) PRIMARY KEY,
			asset_id        VARCHAR(50) NOT NULL,
			from_zone       VARCHAR(50),
			to_zone         VARCHAR(50) NOT NULL,
			handler         VARCHAR(50),
			sequence_number BIGINT NOT NULL DEFAULT 0,
			occurred_at     TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_movement_asset_time ON movement_events (asset_id, occurred_at DESC);
	`
	if _, err := t.db.Exec(schema); err != nil {
		return fmt.Errorf("初始化移动事件表失败: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (t *TimescaleDB) Close() error {
	return t.db.Close()
}

// SaveMovement 归档一条移动事件
func (t *TimescaleDB) SaveMovement(event *model.MovementEvent) error {
	query := `
		INSERT INTO movement_events (event_id, asset_id, from_zone, to_zone, handler, sequence_number, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := t.db.Exec(query,
		event.ID, event.AssetID, event.FromZone, event.ToZone,
		event.Handler, event.SequenceNumber, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("归档移动事件失败: %w", err)
	}

	return nil
}

// RecentMovements 获取物资最近的移动记录
func (t *TimescaleDB) RecentMovements(assetID string, limit int) ([]*model.MovementEvent, error) {
	query := `
		SELECT event_id, asset_id, from_zone, to_zone, handler, sequence_number, occurred_at
		FROM movement_events
		WHERE asset_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := t.db.Query(query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("查询移动记录失败: %w", err)
	}
	defer rows.Close()

	var events []*model.MovementEvent
	for rows.Next() {
		var ev model.MovementEvent
		if err := rows.Scan(&ev.ID, &ev.AssetID, &ev.FromZone, &ev.ToZone,
			&ev.Handler, &ev.SequenceNumber, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("扫描行数据失败: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("迭代行数据失败: %w", err)
	}

	return events, nil
}

// ZoneActivity 统计时间段内各区域的移动次数
func (t *TimescaleDB) ZoneActivity(since time.Time) (map[string]int64, error) {
	query := `
		SELECT to_zone, COUNT(*)
		FROM movement_events
		WHERE occurred_at >= $1
		GROUP BY to_zone
	`

	rows, err := t.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("统计区域活跃度失败: %w", err)
	}
	defer rows.Close()

	activity := make(map[string]int64)
	for rows.Next() {
		var zone string
		var count int64
		if err := rows.Scan(&zone, &count); err != nil {
			return nil, fmt.Errorf("扫描行数据失败: %w", err)
		}
		activity[zone] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("迭代行数据失败: %w", err)
	}

	return activity, nil
}
