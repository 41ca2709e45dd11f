package client

import (
	"fmt"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
	"github.com/mark64oswald/healthsim-skills-sub002/engine"
	"github.com/mark64oswald/healthsim-skills-sub002/event"
)

// Client SDK客户端
type Client struct {
	engine engine.Engine
}

// NewClient 创建SDK客户端
func NewClient(opts ...engine.EngineOption) *Client {
	return &Client{
		engine: engine.NewEngine(opts...),
	}
}

// CreateJourney 创建旅程规格
func (c *Client) CreateJourney(name string) *SDKJourneyBuilder {
	return &SDKJourneyBuilder{
		builder: c.engine.CreateJourney(name),
		client:  c,
	}
}

// SDKJourneyBuilder SDK旅程构建器
type SDKJourneyBuilder struct {
	builder *journey.Builder
	client  *Client
}

// SetJourneyID 设置旅程ID
func (jb *SDKJourneyBuilder) SetJourneyID(id string) *SDKJourneyBuilder {
	jb.builder.SetJourneyID(id)
	return jb
}

// SetDescription 设置描述
func (jb *SDKJourneyBuilder) SetDescription(description string) *SDKJourneyBuilder {
	jb.builder.SetDescription(description)
	return jb
}

// SetVersion 设置版本
func (jb *SDKJourneyBuilder) SetVersion(version string) *SDKJourneyBuilder {
	jb.builder.SetVersion(version)
	return jb
}

// SetProduct 设置旅程级产品域
func (jb *SDKJourneyBuilder) SetProduct(product string) *SDKJourneyBuilder {
	jb.builder.SetProduct(product)
	return jb
}

// AddEvent 添加事件定义
func (jb *SDKJourneyBuilder) AddEvent(eventID, name, eventType string) *SDKJourneyBuilder {
	jb.builder.AddEvent(eventID, name, eventType)
	return jb
}

// AddFixedEvent 添加固定延迟事件的快捷方法
func (jb *SDKJourneyBuilder) AddFixedEvent(eventID, name, eventType string, delayDays int) *SDKJourneyBuilder {
	jb.builder.AddEvent(eventID, name, eventType)
	jb.builder.SetDelay(eventID, journey.FixedDelay(delayDays, journey.UnitDays))
	return jb
}

// AddRangeEvent 添加区间延迟事件的快捷方法
func (jb *SDKJourneyBuilder) AddRangeEvent(eventID, name, eventType string, minDays, maxDays int) *SDKJourneyBuilder {
	jb.builder.AddEvent(eventID, name, eventType)
	jb.builder.SetDelay(eventID, journey.RangeDelay(minDays, maxDays, journey.UnitDays))
	return jb
}

// SetEventProduct 设置事件级产品域
func (jb *SDKJourneyBuilder) SetEventProduct(eventID, product string) *SDKJourneyBuilder {
	jb.builder.SetEventProduct(eventID, product)
	return jb
}

// SetDelay 设置延迟
func (jb *SDKJourneyBuilder) SetDelay(eventID string, delay journey.DelaySpec) *SDKJourneyBuilder {
	jb.builder.SetDelay(eventID, delay)
	return jb
}

// SetDependsOn 设置依赖事件
func (jb *SDKJourneyBuilder) SetDependsOn(eventID, dependsOn string) *SDKJourneyBuilder {
	jb.builder.SetDependsOn(eventID, dependsOn)
	return jb
}

// AddCondition 添加纳入条件
func (jb *SDKJourneyBuilder) AddCondition(eventID, field, operator string, value any) *SDKJourneyBuilder {
	jb.builder.AddCondition(eventID, field, operator, value)
	return jb
}

// SetParameters 设置事件参数
func (jb *SDKJourneyBuilder) SetParameters(eventID string, params map[string]any) *SDKJourneyBuilder {
	jb.builder.SetParameters(eventID, params)
	return jb
}

// Register 构建并注册旅程
func (jb *SDKJourneyBuilder) Register() (*journey.Specification, error) {
	spec, err := jb.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build journey: %w", err)
	}

	if err := jb.client.engine.RegisterJourney(spec); err != nil {
		return nil, fmt.Errorf("failed to register journey: %w", err)
	}

	return spec, nil
}

// RegisterHandler 注册领域处理器
func (c *Client) RegisterHandler(product, eventType string, handler engine.Handler) {
	c.engine.RegisterHandler(product, eventType, handler)
}

// CreateTimeline 为实体展开时间线
func (c *Client) CreateTimeline(entity map[string]any, entityType, journeyID string, startDate time.Time, params map[string]any) (*timeline.Timeline, error) {
	spec, err := c.engine.GetJourney(journeyID)
	if err != nil {
		return nil, err
	}
	return c.engine.CreateTimeline(engine.MapEntity(entity), entityType, spec, startDate, params)
}

// ExtendTimeline 向既有时间线追加旅程
func (c *Client) ExtendTimeline(tl *timeline.Timeline, journeyID string, entity map[string]any, params map[string]any) error {
	spec, err := c.engine.GetJourney(journeyID)
	if err != nil {
		return err
	}
	return c.engine.ExtendTimeline(tl, spec, engine.MapEntity(entity), params)
}

// ExecuteTimeline 执行时间线至截止日期
func (c *Client) ExecuteTimeline(tl *timeline.Timeline, entity map[string]any, upToDate time.Time) []*engine.ExecutionResult {
	return c.engine.ExecuteTimeline(tl, engine.MapEntity(entity), upToDate, nil)
}

// Run 展开并完整执行一条时间线的快捷方法
func (c *Client) Run(entity map[string]any, entityType, journeyID string, startDate time.Time) (*timeline.Timeline, []*engine.ExecutionResult, error) {
	tl, err := c.CreateTimeline(entity, entityType, journeyID, startDate, nil)
	if err != nil {
		return nil, nil, err
	}

	results := c.engine.ExecuteTimeline(tl, engine.MapEntity(entity), tl.EndDate, nil)
	return tl, results, nil
}

// GetJourney 获取旅程规格
func (c *Client) GetJourney(id string) (*journey.Specification, error) {
	return c.engine.GetJourney(id)
}

// ListJourneys 列出旅程规格
func (c *Client) ListJourneys() []*journey.Specification {
	return c.engine.ListJourneys()
}

// DeleteJourney 删除旅程规格
func (c *Client) DeleteJourney(id string) error {
	return c.engine.DeleteJourney(id)
}

// Subscribe 订阅引擎事件
func (c *Client) Subscribe(eventType string, handler event.EventHandler) error {
	return c.engine.Subscribe(eventType, handler)
}

// Engine 暴露底层引擎
func (c *Client) Engine() engine.Engine {
	return c.engine
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.engine.Close()
}

// 快捷方法

// SequentialJourney 创建顺序旅程的快捷方法：事件依次间隔固定天数
func (c *Client) SequentialJourney(name, product string, delayDays int, eventTypes ...string) (*journey.Specification, error) {
	jb := c.CreateJourney(name).SetProduct(product)

	prevID := ""
	for i, eventType := range eventTypes {
		eventID := fmt.Sprintf("event_%d", i+1)
		eventName := fmt.Sprintf("Event %d", i+1)

		delay := delayDays
		if i == 0 {
			// 首个事件落在时间线起点
			delay = 0
		}
		jb.AddFixedEvent(eventID, eventName, eventType, delay)

		// 添加顺序依赖
		if prevID != "" {
			jb.SetDependsOn(eventID, prevID)
		}
		prevID = eventID
	}

	return jb.Register()
}
