package timeline

import (
	"sort"
	"time"
)

// EventStatus 时间线事件状态
type EventStatus int

const (
	StatusPending EventStatus = iota
	StatusExecuted
	StatusFailed
	StatusSkipped
)

func (s EventStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusExecuted:
		return "executed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsTerminal 是否为终态（终态之间不可转移）
func (s EventStatus) IsTerminal() bool {
	return s != StatusPending
}

// Event 时间线事件：事件定义在某个实体上的具体实例
type Event struct {
	ID                string            `json:"timeline_event_id"`
	DefinitionID      string            `json:"event_definition_id"`
	JourneyID         string            `json:"journey_id"`
	Name              string            `json:"name,omitempty"`
	EventType         string            `json:"event_type"`
	Product           string            `json:"product"`
	ScheduledDate     time.Time         `json:"scheduled_date"`
	ExecutedDate      time.Time         `json:"executed_date,omitempty"` // 执行前为零值
	Status            EventStatus       `json:"status"`
	Parameters        map[string]any    `json:"parameters,omitempty"`
	Outputs           map[string]any    `json:"outputs,omitempty"`
	CreatedEntityRefs map[string]string `json:"created_entity_refs,omitempty"` // 类型→ID
	Error             string            `json:"error,omitempty"`
}

// NewEvent 创建待执行的时间线事件
func NewEvent(id, definitionID, journeyID, name, eventType, product string, scheduledDate time.Time, parameters map[string]any) *Event {
	return &Event{
		ID:            id,
		DefinitionID:  definitionID,
		JourneyID:     journeyID,
		Name:          name,
		EventType:     eventType,
		Product:       product,
		ScheduledDate: scheduledDate,
		Status:        StatusPending,
		Parameters:    parameters,
	}
}

// MarkExecuted 标记事件执行成功
func (e *Event) MarkExecuted(executedDate time.Time, outputs map[string]any, entityRefs map[string]string) error {
	if e.Status.IsTerminal() {
		return NewTimelineErrorf("event %s is already %s", e.ID, e.Status)
	}
	e.Status = StatusExecuted
	e.ExecutedDate = executedDate
	e.Outputs = outputs
	e.CreatedEntityRefs = entityRefs
	return nil
}

// MarkFailed 标记事件执行失败
func (e *Event) MarkFailed(errMsg string) error {
	if e.Status.IsTerminal() {
		return NewTimelineErrorf("event %s is already %s", e.ID, e.Status)
	}
	e.Status = StatusFailed
	e.Error = errMsg
	return nil
}

// MarkSkipped 标记事件跳过
func (e *Event) MarkSkipped(reason string) error {
	if e.Status.IsTerminal() {
		return NewTimelineErrorf("event %s is already %s", e.ID, e.Status)
	}
	e.Status = StatusSkipped
	e.Error = reason
	return nil
}

// Timeline 时间线聚合根：旅程规格针对单个实体的具体展开
type Timeline struct {
	ID         string    `json:"timeline_id"`
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type,omitempty"`
	JourneyIDs []string  `json:"journey_ids"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date,omitempty"` // 空时间线为零值
	Events     []*Event  `json:"events"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTimeline 创建空时间线
func NewTimeline(id, entityID, entityType, journeyID string, startDate time.Time) *Timeline {
	return &Timeline{
		ID:         id,
		EntityID:   entityID,
		EntityType: entityType,
		JourneyIDs: []string{journeyID},
		StartDate:  startDate,
		Events:     make([]*Event, 0),
		CreatedAt:  time.Now(),
	}
}

// AddEvent 追加事件（调用方负责之后重新排序）
func (t *Timeline) AddEvent(event *Event) {
	t.Events = append(t.Events, event)
}

// AddJourneyID 记录参与时间线的旅程
func (t *Timeline) AddJourneyID(journeyID string) {
	for _, id := range t.JourneyIDs {
		if id == journeyID {
			return
		}
	}
	t.JourneyIDs = append(t.JourneyIDs, journeyID)
}

// SortEvents 按计划日期升序排序（同日保持声明顺序）
func (t *Timeline) SortEvents() {
	sort.SliceStable(t.Events, func(i, j int) bool {
		return t.Events[i].ScheduledDate.Before(t.Events[j].ScheduledDate)
	})
}

// RecomputeEndDate 重新计算结束日期（所有事件计划日期的最大值）
func (t *Timeline) RecomputeEndDate() {
	var end time.Time
	for _, ev := range t.Events {
		if ev.ScheduledDate.After(end) {
			end = ev.ScheduledDate
		}
	}
	t.EndDate = end
}

// FindEvent 根据时间线事件ID查找事件
func (t *Timeline) FindEvent(timelineEventID string) (*Event, bool) {
	for _, ev := range t.Events {
		if ev.ID == timelineEventID {
			return ev, true
		}
	}
	return nil, false
}

// PendingEvents 待执行事件，按计划日期升序
func (t *Timeline) PendingEvents() []*Event {
	pending := make([]*Event, 0)
	for _, ev := range t.Events {
		if ev.Status == StatusPending {
			pending = append(pending, ev)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].ScheduledDate.Before(pending[j].ScheduledDate)
	})
	return pending
}

// IsComplete 是否全部执行完毕（无Pending事件即完成）
func (t *Timeline) IsComplete() bool {
	for _, ev := range t.Events {
		if ev.Status == StatusPending {
			return false
		}
	}
	return true
}

// CountByStatus 按状态统计事件数
func (t *Timeline) CountByStatus() map[EventStatus]int {
	counts := make(map[EventStatus]int)
	for _, ev := range t.Events {
		counts[ev.Status]++
	}
	return counts
}

// Progress 完成进度百分比（终态事件占比）
func (t *Timeline) Progress() float64 {
	if len(t.Events) == 0 {
		return 100
	}
	done := 0
	for _, ev := range t.Events {
		if ev.Status.IsTerminal() {
			done++
		}
	}
	return float64(done) / float64(len(t.Events)) * 100
}
