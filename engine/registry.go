package engine

import (
	"sync"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
)

// Handler 领域处理器：把一个计划事件变为领域产物。
// 由各产品线注册，失败由引擎在事件边界兜住。
type Handler func(entity Entity, event *timeline.Event, context map[string]any) (map[string]any, error)

// handlerRegistry 两级处理器注册表：product → event_type → handler
type handlerRegistry struct {
	handlers map[string]map[string]Handler
	mutex    sync.RWMutex
}

// newHandlerRegistry 创建处理器注册表
func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		handlers: make(map[string]map[string]Handler),
	}
}

// Register 注册处理器，同一(product, event_type)后注册的覆盖先注册的
func (r *handlerRegistry) Register(product, eventType string, handler Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.handlers[product] == nil {
		r.handlers[product] = make(map[string]Handler)
	}
	r.handlers[product][eventType] = handler
}

// Lookup 查找处理器；未注册不是错误，由执行路径按skipped处理
func (r *handlerRegistry) Lookup(product, eventType string) (Handler, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	byType, ok := r.handlers[product]
	if !ok {
		return nil, false
	}
	handler, ok := byType[eventType]
	return handler, ok
}
