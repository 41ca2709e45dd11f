package engine

import (
	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
)

// 领域类型别名：SDK调用方只依赖engine包即可使用完整类型面
type (
	Specification   = journey.Specification
	EventDefinition = journey.EventDefinition
	DelaySpec       = journey.DelaySpec
	Condition       = journey.Condition
	Timeline        = timeline.Timeline
	TimelineEvent   = timeline.Event
	EventStatus     = timeline.EventStatus
)

// 时间线事件状态
const (
	StatusPending  = timeline.StatusPending
	StatusExecuted = timeline.StatusExecuted
	StatusFailed   = timeline.StatusFailed
	StatusSkipped  = timeline.StatusSkipped
)
