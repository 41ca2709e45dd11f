package journey

import (
	"time"
)

// DelayUnit 延迟时间单位
type DelayUnit string

const (
	UnitDays   DelayUnit = "days"
	UnitWeeks  DelayUnit = "weeks"
	UnitMonths DelayUnit = "months" // 月份按30天近似
)

// daysPerUnit 单位对应的天数
func (u DelayUnit) Days() int {
	switch u {
	case UnitWeeks:
		return 7
	case UnitMonths:
		return 30
	default:
		return 1
	}
}

// DelaySpec 延迟描述：固定值或[min,max]闭区间随机值
type DelaySpec struct {
	Value   int       `json:"value,omitempty"`
	Min     int       `json:"min,omitempty"`
	Max     int       `json:"max,omitempty"`
	Unit    DelayUnit `json:"unit"`
	IsRange bool      `json:"is_range,omitempty"`
}

// FixedDelay 创建固定延迟
func FixedDelay(value int, unit DelayUnit) DelaySpec {
	return DelaySpec{Value: value, Unit: unit}
}

// RangeDelay 创建区间随机延迟
func RangeDelay(min, max int, unit DelayUnit) DelaySpec {
	return DelaySpec{Min: min, Max: max, Unit: unit, IsRange: true}
}

// validate 校验延迟配置
func (d DelaySpec) validate() error {
	if d.IsRange {
		if d.Min < 0 || d.Max < d.Min {
			return NewJourneyErrorf("invalid delay range [%d, %d]", d.Min, d.Max)
		}
	} else if d.Value < 0 {
		return NewJourneyErrorf("delay value must be non-negative: %d", d.Value)
	}
	switch d.Unit {
	case UnitDays, UnitWeeks, UnitMonths, "":
	default:
		return NewJourneyErrorf("unknown delay unit: %s", d.Unit)
	}
	return nil
}

// 条件运算符
const (
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
	OpGreater        = ">"
	OpLess           = "<"
	OpIn             = "in"       // 上下文值 ∈ 条件值（条件值为集合）
	OpContains       = "contains" // 条件值 ∈ 上下文值（方向相反，不可混淆）
)

// validOperators 合法运算符集合
var validOperators = map[string]bool{
	OpEqual: true, OpNotEqual: true,
	OpGreaterOrEqual: true, OpLessOrEqual: true,
	OpGreater: true, OpLess: true,
	OpIn: true, OpContains: true,
}

// Condition 条件表达式：field为上下文点分路径
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// validate 校验条件
func (c Condition) validate() error {
	if c.Field == "" {
		return NewJourneyError("condition field cannot be empty")
	}
	if !validOperators[c.Operator] {
		return NewJourneyErrorf("unknown condition operator: %s", c.Operator)
	}
	return nil
}

// EventDefinition 事件定义（旅程规格的组成部分，注册后只读）
type EventDefinition struct {
	EventID    string         `json:"event_id"`
	Name       string         `json:"name"`
	EventType  string         `json:"event_type"`
	Product    string         `json:"product"` // 处理器查找使用的领域命名空间
	Delay      DelaySpec      `json:"delay"`
	DependsOn  string         `json:"depends_on,omitempty"` // 必须引用先声明的事件
	Conditions []Condition    `json:"conditions,omitempty"` // 按AND组合
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Specification 旅程规格聚合根：声明式事件图 + 元数据
type Specification struct {
	JourneyID   string            `json:"journey_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Version     string            `json:"version,omitempty"`
	Product     string            `json:"product,omitempty"` // 事件未指定product时的默认命名空间
	Events      []EventDefinition `json:"events"`            // 声明顺序即调度顺序
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// EventProduct 事件的处理器命名空间（事件级优先于旅程级）
func (s *Specification) EventProduct(def *EventDefinition) string {
	if def.Product != "" {
		return def.Product
	}
	return s.Product
}

// FindEvent 根据事件ID查找定义
func (s *Specification) FindEvent(eventID string) (*EventDefinition, bool) {
	for i := range s.Events {
		if s.Events[i].EventID == eventID {
			return &s.Events[i], true
		}
	}
	return nil, false
}

// Validate 校验旅程规格
func (s *Specification) Validate() error {
	if s.JourneyID == "" {
		return NewJourneyError("journey id cannot be empty")
	}
	if len(s.Events) == 0 {
		return NewJourneyError("journey must contain at least one event")
	}

	// 事件ID唯一，depends_on只能引用先声明的事件
	declared := make(map[string]bool, len(s.Events))
	for i := range s.Events {
		def := &s.Events[i]
		if def.EventID == "" {
			return NewJourneyError("event id cannot be empty")
		}
		if declared[def.EventID] {
			return NewJourneyError("duplicate event id: " + def.EventID)
		}
		if def.DependsOn != "" && !declared[def.DependsOn] {
			return NewJourneyErrorf("event %s depends on undeclared event %s", def.EventID, def.DependsOn)
		}
		if err := def.Delay.validate(); err != nil {
			return err
		}
		for _, cond := range def.Conditions {
			if err := cond.validate(); err != nil {
				return err
			}
		}
		declared[def.EventID] = true
	}

	return nil
}
