package application

import (
	"time"
)

// Event 应用层事件
type Event struct {
	id        string
	eventType string
	entityID  string
	data      map[string]interface{}
	timestamp time.Time
}

// NewEvent 创建事件
func NewEvent(eventType, entityID string, data map[string]interface{}) *Event {
	return &Event{
		eventType: eventType,
		entityID:  entityID,
		data:      data,
		timestamp: time.Now(),
	}
}

// Event getter methods
func (e *Event) ID() string                   { return e.id }
func (e *Event) Type() string                 { return e.eventType }
func (e *Event) EntityID() string             { return e.entityID }
func (e *Event) Data() map[string]interface{} { return e.data }
func (e *Event) Timestamp() time.Time         { return e.timestamp }

// NewJourneyEvent 创建旅程事件
func NewJourneyEvent(eventType, journeyID string, data map[string]interface{}) *Event {
	return NewEvent(eventType, journeyID, data)
}

// NewTimelineEvent 创建时间线事件
func NewTimelineEvent(eventType, timelineID string, data map[string]interface{}) *Event {
	return NewEvent(eventType, timelineID, data)
}

// EventPublisher 事件发布器接口
type EventPublisher interface {
	// Publish 发布事件
	Publish(event *Event) error
}

// EventHandler 事件处理器
type EventHandler func(event *Event) error

// EventSubscriber 事件订阅器接口
type EventSubscriber interface {
	// Subscribe 订阅事件
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe 取消订阅
	Unsubscribe(eventType string, handler EventHandler) error
}
