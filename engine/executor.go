package engine

import (
	"fmt"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
	"github.com/mark64oswald/healthsim-skills-sub002/event"
)

// 执行结果状态
const (
	ResultExecuted = "executed"
	ResultFailed   = "failed"
	ResultSkipped  = "skipped"
)

// ExecutionResult 单个事件的执行结果。批量执行对尝试过的每个事件
// 都返回一条结果，失败和未注册处理器都以结果表达，不向调用方抛错。
type ExecutionResult struct {
	TimelineEventID   string         `json:"timeline_event_id"`
	EventDefinitionID string         `json:"event_definition_id"`
	EventType         string         `json:"event_type"`
	Status            string         `json:"status"`
	Reason            string         `json:"reason,omitempty"`
	Error             string         `json:"error,omitempty"`
	Outputs           map[string]any `json:"outputs,omitempty"`
	ScheduledDate     time.Time      `json:"scheduled_date"`
	ExecutedDate      time.Time      `json:"executed_date,omitempty"`
}

// ExecuteEvent 执行单个时间线事件。处理器按(product, event_type)查找，
// 未注册时返回skipped结果且不改变事件状态；处理器的error和panic都
// 被兜住并转为事件的Failed终态，不向外传播。
func (e *engine) ExecuteEvent(tl *timeline.Timeline, ev *timeline.Event, entity Entity, context map[string]any) *ExecutionResult {
	result := &ExecutionResult{
		TimelineEventID:   ev.ID,
		EventDefinitionID: ev.DefinitionID,
		EventType:         ev.EventType,
		ScheduledDate:     ev.ScheduledDate,
	}

	handler, ok := e.registry.Lookup(ev.Product, ev.EventType)
	if !ok {
		result.Status = ResultSkipped
		result.Reason = "no handler"
		return result
	}

	// 参数在进入处理器前完成解析
	ev.Parameters = ResolveParameters(ev.Parameters, entity, e.skills)

	outputs, err := invokeHandler(handler, entity, ev, context)
	if err != nil {
		ev.MarkFailed(err.Error())
		result.Status = ResultFailed
		result.Error = err.Error()
		e.publishEventResult(event.EventTimelineEventFailed, tl, ev, result)
		return result
	}

	refs := extractEntityRefs(outputs)
	executedDate := time.Now()
	ev.MarkExecuted(executedDate, outputs, refs)

	result.Status = ResultExecuted
	result.Outputs = outputs
	result.ExecutedDate = executedDate
	e.publishEventResult(event.EventTimelineEventExecuted, tl, ev, result)
	return result
}

// ExecuteTimeline 按计划日期升序执行待执行事件，遇到第一个超出
// upToDate的事件即停止（前缀截断，不是过滤）。对尝试过的每个事件
// 返回一条结果。
func (e *engine) ExecuteTimeline(tl *timeline.Timeline, entity Entity, upToDate time.Time, context map[string]any) []*ExecutionResult {
	results := make([]*ExecutionResult, 0)
	if tl == nil {
		return results
	}

	for _, ev := range tl.PendingEvents() {
		if ev.ScheduledDate.After(upToDate) {
			break
		}
		results = append(results, e.ExecuteEvent(tl, ev, entity, context))
	}

	return results
}

// invokeHandler 调用处理器并兜住panic
func invokeHandler(handler Handler, entity Entity, ev *timeline.Event, context map[string]any) (outputs map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			outputs = nil
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(entity, ev, context)
}

// extractEntityRefs 从处理器输出提取产物引用（保留键entity_refs）
func extractEntityRefs(outputs map[string]any) map[string]string {
	if outputs == nil {
		return nil
	}
	raw, ok := outputs[entityRefsKey]
	if !ok {
		return nil
	}
	delete(outputs, entityRefsKey)

	switch refs := raw.(type) {
	case map[string]string:
		return refs
	case map[string]any:
		converted := make(map[string]string, len(refs))
		for k, v := range refs {
			converted[k] = fmt.Sprint(v)
		}
		return converted
	default:
		return nil
	}
}

// publishEventResult 发布事件执行结果
func (e *engine) publishEventResult(eventType string, tl *timeline.Timeline, ev *timeline.Event, result *ExecutionResult) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.Publish(&event.Event{
		Type:       eventType,
		JourneyID:  ev.JourneyID,
		TimelineID: tl.ID,
		EventID:    ev.ID,
		Data: map[string]any{
			"event_definition_id": ev.DefinitionID,
			"event_type":          ev.EventType,
			"status":              result.Status,
			"error":               result.Error,
			"scheduled_date":      ev.ScheduledDate,
		},
		Timestamp: time.Now().UnixMilli(),
	})
}
