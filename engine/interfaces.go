package engine

import (
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
	"github.com/mark64oswald/healthsim-skills-sub002/event"
)

// Engine 旅程引擎接口
type Engine interface {
	// 旅程管理
	CreateJourney(name string) *journey.Builder
	RegisterJourney(spec *journey.Specification) error
	GetJourney(id string) (*journey.Specification, error)
	ListJourneys() []*journey.Specification
	DeleteJourney(id string) error

	// 处理器注册
	RegisterHandler(product, eventType string, handler Handler)

	// 时间线构建
	CreateTimeline(entity Entity, entityType string, spec *journey.Specification, startDate time.Time, params map[string]any) (*timeline.Timeline, error)
	ExtendTimeline(tl *timeline.Timeline, spec *journey.Specification, entity Entity, params map[string]any) error

	// 时间线执行
	ExecuteEvent(tl *timeline.Timeline, ev *timeline.Event, entity Entity, context map[string]any) *ExecutionResult
	ExecuteTimeline(tl *timeline.Timeline, entity Entity, upToDate time.Time, context map[string]any) []*ExecutionResult

	// 事件总线
	Subscribe(eventType string, handler event.EventHandler) error

	Close() error
}
