package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
	"github.com/mark64oswald/healthsim-skills-sub002/event"
)

// CreateTimeline 将旅程规格展开为具体时间线。按声明顺序处理事件定义：
// 条件不满足的定义整体跳过；有依赖的事件锚定到依赖事件的日期，
// 且不推进顺序游标；无依赖的事件基于游标排期并推进游标。
func (e *engine) CreateTimeline(entity Entity, entityType string, spec *journey.Specification, startDate time.Time, params map[string]any) (*timeline.Timeline, error) {
	if spec == nil {
		return nil, fmt.Errorf("journey specification cannot be nil")
	}

	tl := timeline.NewTimeline(generateTimelineID(), entityID(entity), entityType, spec.JourneyID, startDate)

	e.scheduleJourney(tl, spec, entity, startDate, params)

	tl.SortEvents()
	tl.RecomputeEndDate()

	// 发布事件
	if e.eventBus != nil {
		e.eventBus.Publish(&event.Event{
			Type:       event.EventTimelineCreated,
			JourneyID:  spec.JourneyID,
			TimelineID: tl.ID,
			Data: map[string]any{
				"entity_id":   tl.EntityID,
				"event_count": len(tl.Events),
				"start_date":  tl.StartDate,
				"end_date":    tl.EndDate,
			},
			Timestamp: time.Now().UnixMilli(),
		})
	}

	return tl, nil
}

// ExtendTimeline 将另一个旅程的事件追加到已有时间线，
// 游标从时间线的起始日期重新开始
func (e *engine) ExtendTimeline(tl *timeline.Timeline, spec *journey.Specification, entity Entity, params map[string]any) error {
	if tl == nil {
		return fmt.Errorf("timeline cannot be nil")
	}
	if spec == nil {
		return fmt.Errorf("journey specification cannot be nil")
	}

	e.scheduleJourney(tl, spec, entity, tl.StartDate, params)
	tl.AddJourneyID(spec.JourneyID)

	tl.SortEvents()
	tl.RecomputeEndDate()
	return nil
}

// scheduleJourney 单个旅程的排期算法
func (e *engine) scheduleJourney(tl *timeline.Timeline, spec *journey.Specification, entity Entity, startDate time.Time, params map[string]any) {
	cursor := startDate
	scheduled := make(map[string]time.Time, len(spec.Events))
	declared := make(map[string]bool, len(spec.Events))

	for i := range spec.Events {
		def := &spec.Events[i]

		// 依赖未声明或为前向引用属于配置错误：只拒绝该定义，不中断整条时间线
		if def.DependsOn != "" && !declared[def.DependsOn] {
			declared[def.EventID] = true
			continue
		}
		declared[def.EventID] = true

		// 条件不满足的定义不进入时间线
		if !EvaluateConditions(def.Conditions, entity, params) {
			continue
		}

		// 依赖事件在线上时锚定其日期，否则基于顺序游标
		baseDate := cursor
		if def.DependsOn != "" {
			if depDate, ok := scheduled[def.DependsOn]; ok {
				baseDate = depDate
			}
		}

		delay := ResolveDelay(def.Delay, e.rng)
		eventDate := baseDate.Add(delay)

		ev := timeline.NewEvent(
			generateTimelineEventID(),
			def.EventID,
			spec.JourneyID,
			def.Name,
			def.EventType,
			spec.EventProduct(def),
			eventDate,
			cloneParameters(def.Parameters),
		)
		tl.AddEvent(ev)
		scheduled[def.EventID] = eventDate

		// 依赖事件从锚点分叉，不扰动主序列游标
		if def.DependsOn == "" {
			cursor = eventDate
		}
	}
}

// cloneParameters 浅拷贝顶层并递归拷贝嵌套map，隔离规格与时间线实例
func cloneParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	cloned := make(map[string]any, len(params))
	for k, v := range params {
		if nested, ok := v.(map[string]any); ok {
			cloned[k] = cloneParameters(nested)
		} else {
			cloned[k] = v
		}
	}
	return cloned
}

// generateTimelineID 生成时间线ID
func generateTimelineID() string {
	return fmt.Sprintf("tl_%s", uuid.New().String())
}

// generateTimelineEventID 生成时间线事件ID
func generateTimelineEventID() string {
	return fmt.Sprintf("tle_%s", uuid.New().String())
}
