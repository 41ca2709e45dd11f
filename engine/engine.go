package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/event"
)

// engine 旅程引擎实现。单实例单逻辑调用方使用，内部不做并发执行；
// 随机源为实例级共享，调用顺序决定同一种子下的可复现性。
type engine struct {
	journeys map[string]*journey.Specification
	registry *handlerRegistry
	skills   SkillResolver
	rng      *rand.Rand
	eventBus event.EventBus
	mutex    sync.RWMutex
}

// NewEngine 创建引擎实例
func NewEngine(opts ...EngineOption) Engine {
	e := &engine{
		journeys: make(map[string]*journey.Specification),
		registry: newHandlerRegistry(),
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(e)
	}

	// 初始化默认组件
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.eventBus == nil {
		e.eventBus = event.NewEventBus()
	}

	return e
}

// EngineOption 引擎配置选项
type EngineOption func(*engine)

// WithSeed 设置随机种子（单个持续推进的生成器，不按次重播种）
func WithSeed(seed int64) EngineOption {
	return func(e *engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRandomSource 设置随机源
func WithRandomSource(rng *rand.Rand) EngineOption {
	return func(e *engine) {
		e.rng = rng
	}
}

// WithSkillResolver 设置外部知识解析器
func WithSkillResolver(skills SkillResolver) EngineOption {
	return func(e *engine) {
		e.skills = skills
	}
}

// WithEventBus 设置事件总线
func WithEventBus(eventBus event.EventBus) EngineOption {
	return func(e *engine) {
		e.eventBus = eventBus
	}
}

// CreateJourney 创建旅程规格构建器
func (e *engine) CreateJourney(name string) *journey.Builder {
	return journey.NewBuilder(name)
}

// RegisterJourney 注册旅程规格（注册后对引擎只读）
func (e *engine) RegisterJourney(spec *journey.Specification) error {
	if spec == nil {
		return fmt.Errorf("journey specification cannot be nil")
	}

	if err := spec.Validate(); err != nil {
		return fmt.Errorf("journey validation failed: %w", err)
	}

	e.mutex.Lock()
	e.journeys[spec.JourneyID] = spec
	e.mutex.Unlock()

	// 发布事件
	if e.eventBus != nil {
		e.eventBus.Publish(&event.Event{
			Type:      event.EventJourneyRegistered,
			JourneyID: spec.JourneyID,
			Data: map[string]any{
				"name":        spec.Name,
				"version":     spec.Version,
				"event_count": len(spec.Events),
			},
			Timestamp: time.Now().UnixMilli(),
		})
	}

	return nil
}

// GetJourney 获取旅程规格
func (e *engine) GetJourney(id string) (*journey.Specification, error) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if spec, exists := e.journeys[id]; exists {
		return spec, nil
	}
	return nil, fmt.Errorf("journey not found: %s", id)
}

// ListJourneys 列出旅程规格
func (e *engine) ListJourneys() []*journey.Specification {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	specs := make([]*journey.Specification, 0, len(e.journeys))
	for _, spec := range e.journeys {
		specs = append(specs, spec)
	}
	return specs
}

// DeleteJourney 删除旅程规格
func (e *engine) DeleteJourney(id string) error {
	e.mutex.Lock()
	delete(e.journeys, id)
	e.mutex.Unlock()
	return nil
}

// RegisterHandler 注册领域处理器，同对后注册的覆盖先注册的。
// 注册表不校验规格引用的(product, event_type)是否已注册，
// 缺失只在执行时以skipped结果暴露。
func (e *engine) RegisterHandler(product, eventType string, handler Handler) {
	e.registry.Register(product, eventType, handler)
}

// Subscribe 订阅引擎事件
func (e *engine) Subscribe(eventType string, handler event.EventHandler) error {
	return e.eventBus.Subscribe(eventType, handler)
}

// Close 关闭引擎
func (e *engine) Close() error {
	return nil
}
