package mysql

import (
	"database/sql"
	"encoding/json"

	_ "github.com/go-sql-driver/mysql"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/logger"
)

// logRepository MySQL日志仓储实现
type logRepository struct {
	db *sql.DB
}

// NewLogRepository 创建MySQL日志仓储
func NewLogRepository(dsn string) (logger.LogRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	repo := &logRepository{db: db}

	// 初始化表结构
	if err := repo.initTables(); err != nil {
		return nil, err
	}

	return repo, nil
}

// initTables 初始化数据库表
func (r *logRepository) initTables() error {
	query := `CREATE TABLE IF NOT EXISTS simulation_logs (
		id VARCHAR(255) PRIMARY KEY,
		timeline_id VARCHAR(255) NOT NULL,
		timeline_event_id VARCHAR(255) NOT NULL DEFAULT '',
		level VARCHAR(10) NOT NULL,
		message TEXT NOT NULL,
		attributes JSON,
		timestamp TIMESTAMP(6) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_timeline_id (timeline_id),
		INDEX idx_timeline_event_id (timeline_event_id),
		INDEX idx_level (level),
		INDEX idx_timestamp (timestamp)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	_, err := r.db.Exec(query)
	return err
}

// SaveLogs 批量保存日志
func (r *logRepository) SaveLogs(logs []*logger.LogEntry) error {
	if len(logs) == 0 {
		return nil
	}

	// 构建批量插入SQL
	query := `INSERT INTO simulation_logs (id, timeline_id, timeline_event_id, level, message, attributes, timestamp) VALUES `
	values := make([]interface{}, 0, len(logs)*7)

	for i, entry := range logs {
		if i > 0 {
			query += ", "
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"

		attributesJSON, err := json.Marshal(entry.Attributes())
		if err != nil {
			return err
		}

		values = append(values, entry.ID(), entry.TimelineID(), entry.EventID(),
			string(entry.Level()), entry.Message(), string(attributesJSON), entry.Timestamp())
	}

	_, err := r.db.Exec(query, values...)
	return err
}

// GetLogs 获取时间线日志
func (r *logRepository) GetLogs(timelineID string, limit, offset int) ([]*logger.LogEntry, error) {
	query := `SELECT timeline_id, timeline_event_id, level, message, attributes
			  FROM simulation_logs WHERE timeline_id = ?
			  ORDER BY timestamp ASC LIMIT ? OFFSET ?`

	return r.queryLogs(query, timelineID, limit, offset)
}

// GetEventLogs 获取时间线事件日志
func (r *logRepository) GetEventLogs(timelineID, eventID string, limit, offset int) ([]*logger.LogEntry, error) {
	query := `SELECT timeline_id, timeline_event_id, level, message, attributes
			  FROM simulation_logs WHERE timeline_id = ? AND timeline_event_id = ?
			  ORDER BY timestamp ASC LIMIT ? OFFSET ?`

	return r.queryLogs(query, timelineID, eventID, limit, offset)
}

// queryLogs 查询日志
func (r *logRepository) queryLogs(query string, args ...interface{}) ([]*logger.LogEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*logger.LogEntry, 0)
	for rows.Next() {
		var timelineID, eventID, level, message string
		var attributesJSON sql.NullString

		if err := rows.Scan(&timelineID, &eventID, &level, &message, &attributesJSON); err != nil {
			return nil, err
		}

		var attributes map[string]interface{}
		if attributesJSON.Valid && attributesJSON.String != "null" {
			if err := json.Unmarshal([]byte(attributesJSON.String), &attributes); err != nil {
				return nil, err
			}
		}

		entries = append(entries, logger.NewLogEntry(timelineID, eventID, logger.LogLevel(level), message, attributes))
	}

	return entries, rows.Err()
}

// DeleteLogs 删除日志
func (r *logRepository) DeleteLogs(timelineID string) error {
	_, err := r.db.Exec("DELETE FROM simulation_logs WHERE timeline_id = ?", timelineID)
	return err
}
