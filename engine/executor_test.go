package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
)

// okHandler 返回固定输出的处理器
func okHandler(entity Entity, ev *timeline.Event, context map[string]any) (map[string]any, error) {
	return map[string]any{"done": true}, nil
}

func TestExecuteTimelinePrefixCutoff(t *testing.T) {
	eng := NewEngine(WithSeed(42))
	eng.RegisterHandler("medical", "encounter", okHandler)
	eng.RegisterHandler("medical", "claim", okHandler)

	spec := buildJourney(t)
	entity := testEntity()

	tl, err := eng.CreateTimeline(entity, "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	// 截止到2月1日：A(1月1日)和B(1月15日)执行，C(4月1日)保持待执行
	upTo := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	results := eng.ExecuteTimeline(tl, entity, upTo, nil)

	if len(results) != 2 {
		t.Fatalf("期望2条执行结果，实际为: %d", len(results))
	}
	for _, r := range results {
		if r.Status != ResultExecuted {
			t.Errorf("期望结果为executed，实际为: %s", r.Status)
		}
	}

	ev, _ := findByDefinition(tl.Events, "C")
	if ev.Status != timeline.StatusPending {
		t.Errorf("期望C保持pending，实际为: %s", ev.Status)
	}

	// 推进截止日期后继续执行剩余事件
	results = eng.ExecuteTimeline(tl, entity, tl.EndDate, nil)
	if len(results) != 1 {
		t.Fatalf("期望1条执行结果，实际为: %d", len(results))
	}
	if !tl.IsComplete() {
		t.Error("期望时间线执行完毕")
	}
}

func TestExecuteEventNoHandlerSkipped(t *testing.T) {
	eng := NewEngine(WithSeed(1))
	spec := buildJourney(t)
	entity := testEntity()

	tl, err := eng.CreateTimeline(entity, "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	ev := tl.Events[0]
	result := eng.ExecuteEvent(tl, ev, entity, nil)

	if result.Status != ResultSkipped {
		t.Fatalf("期望结果为skipped，实际为: %s", result.Status)
	}
	if result.Reason != "no handler" {
		t.Errorf("期望原因为no handler，实际为: %s", result.Reason)
	}

	// 未注册处理器不改变事件状态，后续注册后仍可执行
	if ev.Status != timeline.StatusPending {
		t.Errorf("期望事件保持pending，实际为: %s", ev.Status)
	}

	eng.RegisterHandler("medical", "encounter", okHandler)
	result = eng.ExecuteEvent(tl, ev, entity, nil)
	if result.Status != ResultExecuted {
		t.Errorf("注册处理器后期望executed，实际为: %s", result.Status)
	}
}

func TestExecuteEventHandlerErrorContained(t *testing.T) {
	eng := NewEngine(WithSeed(1))
	eng.RegisterHandler("medical", "encounter", func(entity Entity, ev *timeline.Event, context map[string]any) (map[string]any, error) {
		return nil, fmt.Errorf("下游系统不可用")
	})

	spec := buildJourney(t)
	entity := testEntity()
	tl, _ := eng.CreateTimeline(entity, "member", spec, testStart, nil)

	ev := tl.Events[0]
	result := eng.ExecuteEvent(tl, ev, entity, nil)

	if result.Status != ResultFailed {
		t.Fatalf("期望结果为failed，实际为: %s", result.Status)
	}
	if ev.Status != timeline.StatusFailed {
		t.Errorf("期望事件状态为failed，实际为: %s", ev.Status)
	}
	if ev.Error != "下游系统不可用" {
		t.Errorf("期望错误信息被记录，实际为: %s", ev.Error)
	}
}

func TestExecuteEventHandlerPanicContained(t *testing.T) {
	eng := NewEngine(WithSeed(1))
	eng.RegisterHandler("medical", "encounter", func(entity Entity, ev *timeline.Event, context map[string]any) (map[string]any, error) {
		panic("处理器内部崩溃")
	})

	spec := buildJourney(t)
	entity := testEntity()
	tl, _ := eng.CreateTimeline(entity, "member", spec, testStart, nil)

	ev := tl.Events[0]
	result := eng.ExecuteEvent(tl, ev, entity, nil)

	if result.Status != ResultFailed {
		t.Fatalf("期望panic转为failed结果，实际为: %s", result.Status)
	}
	if !strings.Contains(result.Error, "handler panicked") {
		t.Errorf("期望错误包含panic信息，实际为: %s", result.Error)
	}
}

func TestExecuteTimelineFailureDoesNotStopBatch(t *testing.T) {
	eng := NewEngine(WithSeed(42))
	eng.RegisterHandler("medical", "encounter", okHandler)
	eng.RegisterHandler("medical", "claim", func(entity Entity, ev *timeline.Event, context map[string]any) (map[string]any, error) {
		return nil, fmt.Errorf("理赔提交失败")
	})

	spec := buildJourney(t)
	entity := testEntity()
	tl, _ := eng.CreateTimeline(entity, "member", spec, testStart, nil)

	results := eng.ExecuteTimeline(tl, entity, tl.EndDate, nil)

	// B失败不阻断后续的C
	if len(results) != 3 {
		t.Fatalf("期望3条执行结果，实际为: %d", len(results))
	}

	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	if counts[ResultExecuted] != 2 || counts[ResultFailed] != 1 {
		t.Errorf("期望2个executed和1个failed，实际为: %v", counts)
	}
}

func TestExecuteEventLiftsEntityRefs(t *testing.T) {
	eng := NewEngine(WithSeed(1))
	eng.RegisterHandler("medical", "encounter", func(entity Entity, ev *timeline.Event, context map[string]any) (map[string]any, error) {
		return map[string]any{
			"encounter_id": "enc_123",
			"entity_refs": map[string]any{
				"encounter": "enc_123",
			},
		}, nil
	})

	spec := buildJourney(t)
	entity := testEntity()
	tl, _ := eng.CreateTimeline(entity, "member", spec, testStart, nil)

	ev := tl.Events[0]
	result := eng.ExecuteEvent(tl, ev, entity, nil)

	if result.Status != ResultExecuted {
		t.Fatalf("期望结果为executed，实际为: %s", result.Status)
	}

	// entity_refs从输出中提升到专用字段
	if ev.CreatedEntityRefs["encounter"] != "enc_123" {
		t.Errorf("期望产物引用被记录，实际为: %v", ev.CreatedEntityRefs)
	}
	if _, exists := ev.Outputs["entity_refs"]; exists {
		t.Error("entity_refs不应残留在输出中")
	}
	if ev.Outputs["encounter_id"] != "enc_123" {
		t.Errorf("期望其余输出保留，实际为: %v", ev.Outputs)
	}
}

func TestExecuteEventTerminalStateImmutable(t *testing.T) {
	ev := timeline.NewEvent("tle_1", "A", "j", "事件A", "encounter", "medical", testStart, nil)

	if err := ev.MarkExecuted(time.Now(), nil, nil); err != nil {
		t.Fatalf("首次标记失败: %v", err)
	}

	// 终态之间不可转移
	if err := ev.MarkFailed("late failure"); err == nil {
		t.Error("期望终态事件拒绝再次转移")
	}
	if ev.Status != timeline.StatusExecuted {
		t.Errorf("期望状态保持executed，实际为: %s", ev.Status)
	}
}

func TestExecuteEventResolvesParametersBeforeHandler(t *testing.T) {
	var seen map[string]any

	eng := NewEngine(WithSeed(1))
	eng.RegisterHandler("pharmacy", "prescription", func(entity Entity, ev *timeline.Event, context map[string]any) (map[string]any, error) {
		seen = ev.Parameters
		return map[string]any{}, nil
	})

	spec, err := journey.NewBuilder("参数解析").
		SetJourneyID("param-resolve").
		SetProduct("pharmacy").
		AddEvent("rx", "处方", "prescription").
		SetParameters("rx", map[string]any{
			"member_age": "${entity.demographics.age}",
			"fixed":      "unchanged",
		}).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	entity := testEntity()
	tl, _ := eng.CreateTimeline(entity, "member", spec, testStart, nil)

	result := eng.ExecuteEvent(tl, tl.Events[0], entity, nil)
	if result.Status != ResultExecuted {
		t.Fatalf("期望结果为executed，实际为: %s", result.Status)
	}

	// 实体令牌在进入处理器前替换为原始类型
	if seen["member_age"] != 54 {
		t.Errorf("期望member_age解析为54，实际为: %v", seen["member_age"])
	}
	if seen["fixed"] != "unchanged" {
		t.Errorf("期望普通字符串原样保留，实际为: %v", seen["fixed"])
	}
}
