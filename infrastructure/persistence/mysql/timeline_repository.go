package mysql

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
)

// timelineRepository MySQL时间线仓储实现
type timelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository 创建MySQL时间线仓储
func NewTimelineRepository(dsn string) (timeline.Repository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	repo := &timelineRepository{db: db}

	// 初始化表结构
	if err := repo.initTables(); err != nil {
		return nil, err
	}

	return repo, nil
}

// initTables 初始化数据库表
func (r *timelineRepository) initTables() error {
	queries := []string{
		// 时间线表
		`CREATE TABLE IF NOT EXISTS timelines (
			timeline_id VARCHAR(255) PRIMARY KEY,
			entity_id VARCHAR(255) NOT NULL,
			entity_type VARCHAR(64),
			journey_ids JSON,
			start_date TIMESTAMP NULL,
			end_date TIMESTAMP NULL,
			is_complete TINYINT(1) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_entity_id (entity_id),
			INDEX idx_start_date (start_date),
			INDEX idx_created_at (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		// 时间线事件表
		`CREATE TABLE IF NOT EXISTS timeline_events (
			timeline_event_id VARCHAR(255) PRIMARY KEY,
			timeline_id VARCHAR(255) NOT NULL,
			event_definition_id VARCHAR(255) NOT NULL,
			journey_id VARCHAR(255) NOT NULL,
			name VARCHAR(255),
			event_type VARCHAR(128) NOT NULL,
			product VARCHAR(128) NOT NULL,
			scheduled_date TIMESTAMP NULL,
			executed_date TIMESTAMP NULL,
			status INT NOT NULL DEFAULT 0,
			parameters JSON,
			outputs JSON,
			entity_refs JSON,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_timeline_id (timeline_id),
			INDEX idx_status (status),
			INDEX idx_scheduled_date (scheduled_date)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// SaveTimeline 保存时间线及全部事件
func (r *timelineRepository) SaveTimeline(t *timeline.Timeline) error {
	journeyIDsJSON, err := json.Marshal(t.JourneyIDs)
	if err != nil {
		return err
	}

	query := `INSERT INTO timelines (timeline_id, entity_id, entity_type, journey_ids, start_date, end_date, is_complete)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  journey_ids = VALUES(journey_ids), end_date = VALUES(end_date), is_complete = VALUES(is_complete)`

	_, err = r.db.Exec(query, t.ID, t.EntityID, t.EntityType, string(journeyIDsJSON),
		t.StartDate, nullableTime(t.EndDate), t.IsComplete())
	if err != nil {
		return err
	}

	// 保存事件
	for _, ev := range t.Events {
		if err := r.saveEvent(t.ID, ev); err != nil {
			return err
		}
	}

	return nil
}

// saveEvent 保存时间线事件
func (r *timelineRepository) saveEvent(timelineID string, ev *timeline.Event) error {
	parametersJSON, err := json.Marshal(ev.Parameters)
	if err != nil {
		return err
	}

	outputsJSON, err := json.Marshal(ev.Outputs)
	if err != nil {
		return err
	}

	refsJSON, err := json.Marshal(ev.CreatedEntityRefs)
	if err != nil {
		return err
	}

	query := `INSERT INTO timeline_events (timeline_event_id, timeline_id, event_definition_id, journey_id, name, event_type, product, scheduled_date, executed_date, status, parameters, outputs, entity_refs, error)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  executed_date = VALUES(executed_date), status = VALUES(status),
			  parameters = VALUES(parameters), outputs = VALUES(outputs),
			  entity_refs = VALUES(entity_refs), error = VALUES(error)`

	_, err = r.db.Exec(query, ev.ID, timelineID, ev.DefinitionID, ev.JourneyID, ev.Name,
		ev.EventType, ev.Product, ev.ScheduledDate, nullableTime(ev.ExecutedDate),
		int(ev.Status), string(parametersJSON), string(outputsJSON), string(refsJSON), ev.Error)

	return err
}

// FindTimelineByID 根据ID查找时间线
func (r *timelineRepository) FindTimelineByID(id string) (*timeline.Timeline, error) {
	query := `SELECT timeline_id, entity_id, entity_type, journey_ids, start_date, end_date, created_at
			  FROM timelines WHERE timeline_id = ?`

	row := r.db.QueryRow(query, id)

	var t timeline.Timeline
	var entityType sql.NullString
	var journeyIDsJSON string
	var endDate sql.NullTime

	err := row.Scan(&t.ID, &t.EntityID, &entityType, &journeyIDsJSON, &t.StartDate, &endDate, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, NewMySQLError("timeline not found: " + id)
		}
		return nil, err
	}

	t.EntityType = entityType.String
	if endDate.Valid {
		t.EndDate = endDate.Time
	}
	if err := json.Unmarshal([]byte(journeyIDsJSON), &t.JourneyIDs); err != nil {
		return nil, err
	}

	// 加载事件
	events, err := r.loadEvents(id)
	if err != nil {
		return nil, err
	}
	t.Events = events

	return &t, nil
}

// loadEvents 加载时间线事件
func (r *timelineRepository) loadEvents(timelineID string) ([]*timeline.Event, error) {
	query := `SELECT timeline_event_id, event_definition_id, journey_id, name, event_type, product, scheduled_date, executed_date, status, parameters, outputs, entity_refs, error
			  FROM timeline_events WHERE timeline_id = ? ORDER BY scheduled_date ASC`

	rows, err := r.db.Query(query, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*timeline.Event, 0)
	for rows.Next() {
		var ev timeline.Event
		var name sql.NullString
		var executedDate sql.NullTime
		var status int
		var parametersJSON, outputsJSON, refsJSON sql.NullString
		var errMsg sql.NullString

		err := rows.Scan(&ev.ID, &ev.DefinitionID, &ev.JourneyID, &name, &ev.EventType, &ev.Product,
			&ev.ScheduledDate, &executedDate, &status, &parametersJSON, &outputsJSON, &refsJSON, &errMsg)
		if err != nil {
			return nil, err
		}

		ev.Name = name.String
		ev.Status = timeline.EventStatus(status)
		ev.Error = errMsg.String
		if executedDate.Valid {
			ev.ExecutedDate = executedDate.Time
		}
		if parametersJSON.Valid && parametersJSON.String != "null" {
			if err := json.Unmarshal([]byte(parametersJSON.String), &ev.Parameters); err != nil {
				return nil, err
			}
		}
		if outputsJSON.Valid && outputsJSON.String != "null" {
			if err := json.Unmarshal([]byte(outputsJSON.String), &ev.Outputs); err != nil {
				return nil, err
			}
		}
		if refsJSON.Valid && refsJSON.String != "null" {
			if err := json.Unmarshal([]byte(refsJSON.String), &ev.CreatedEntityRefs); err != nil {
				return nil, err
			}
		}

		events = append(events, &ev)
	}

	return events, rows.Err()
}

// ListTimelines 列出时间线
func (r *timelineRepository) ListTimelines(entityID string, limit, offset int) ([]*timeline.Timeline, error) {
	var query string
	var args []interface{}

	if entityID == "" {
		query = `SELECT timeline_id FROM timelines ORDER BY created_at DESC LIMIT ? OFFSET ?`
		args = []interface{}{limit, offset}
	} else {
		query = `SELECT timeline_id FROM timelines WHERE entity_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
		args = []interface{}{entityID, limit, offset}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	timelines := make([]*timeline.Timeline, 0, len(ids))
	for _, id := range ids {
		t, err := r.FindTimelineByID(id)
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, t)
	}

	return timelines, nil
}

// UpdateTimeline 更新时间线
func (r *timelineRepository) UpdateTimeline(t *timeline.Timeline) error {
	return r.SaveTimeline(t)
}

// DeleteTimeline 删除时间线
func (r *timelineRepository) DeleteTimeline(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 删除事件
	if _, err := tx.Exec("DELETE FROM timeline_events WHERE timeline_id = ?", id); err != nil {
		return err
	}

	// 删除时间线
	if _, err := tx.Exec("DELETE FROM timelines WHERE timeline_id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// Close 关闭数据库连接
func (r *timelineRepository) Close() error {
	return r.db.Close()
}

// nullableTime 零值时间转为NULL
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
