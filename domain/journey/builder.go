package journey

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// Builder 旅程规格构建器
type Builder struct {
	spec   *Specification
	events []EventDefinition
}

// NewBuilder 创建旅程规格构建器
func NewBuilder(name string) *Builder {
	now := time.Now()
	return &Builder{
		spec: &Specification{
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		},
		events: make([]EventDefinition, 0),
	}
}

// SetJourneyID 设置旅程ID
func (b *Builder) SetJourneyID(id string) *Builder {
	b.spec.JourneyID = id
	return b
}

// SetDescription 设置旅程描述
func (b *Builder) SetDescription(description string) *Builder {
	b.spec.Description = description
	return b
}

// SetVersion 设置旅程版本
func (b *Builder) SetVersion(version string) *Builder {
	b.spec.Version = version
	return b
}

// SetProduct 设置默认领域命名空间
func (b *Builder) SetProduct(product string) *Builder {
	b.spec.Product = product
	return b
}

// AddEvent 添加事件定义（声明顺序即调度顺序）
func (b *Builder) AddEvent(eventID, name, eventType string) *Builder {
	b.events = append(b.events, EventDefinition{
		EventID:   eventID,
		Name:      name,
		EventType: eventType,
		Delay:     FixedDelay(0, UnitDays),
	})
	return b
}

// SetEventProduct 设置事件的领域命名空间
func (b *Builder) SetEventProduct(eventID, product string) *Builder {
	if def := b.findEvent(eventID); def != nil {
		def.Product = product
	}
	return b
}

// SetDelay 设置事件延迟
func (b *Builder) SetDelay(eventID string, delay DelaySpec) *Builder {
	if def := b.findEvent(eventID); def != nil {
		def.Delay = delay
	}
	return b
}

// SetDependsOn 设置事件依赖（依赖事件的日期作为锚点）
func (b *Builder) SetDependsOn(eventID, dependsOn string) *Builder {
	if def := b.findEvent(eventID); def != nil {
		def.DependsOn = dependsOn
	}
	return b
}

// AddCondition 添加事件条件（多条件按AND组合）
func (b *Builder) AddCondition(eventID, field, operator string, value any) *Builder {
	if def := b.findEvent(eventID); def != nil {
		def.Conditions = append(def.Conditions, Condition{
			Field:    field,
			Operator: operator,
			Value:    value,
		})
	}
	return b
}

// SetParameters 设置事件参数
func (b *Builder) SetParameters(eventID string, parameters map[string]any) *Builder {
	if def := b.findEvent(eventID); def != nil {
		def.Parameters = parameters
	}
	return b
}

// findEvent 按事件ID查找已添加的定义
func (b *Builder) findEvent(eventID string) *EventDefinition {
	for i := range b.events {
		if b.events[i].EventID == eventID {
			return &b.events[i]
		}
	}
	return nil
}

// Build 构建并校验旅程规格
func (b *Builder) Build() (*Specification, error) {
	if b.spec.JourneyID == "" {
		b.spec.JourneyID = generateID()
	}

	b.spec.Events = make([]EventDefinition, len(b.events))
	copy(b.spec.Events, b.events)
	b.spec.UpdatedAt = time.Now()

	if err := b.spec.Validate(); err != nil {
		return nil, fmt.Errorf("journey validation failed: %w", err)
	}

	return b.spec, nil
}

// generateID 生成唯一旅程ID
func generateID() string {
	return fmt.Sprintf("jrn_%s", time.Now().Format("20060102150405")+"0"+strconv.Itoa(rand.Intn(1000)))
}
