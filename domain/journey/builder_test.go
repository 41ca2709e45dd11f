package journey

import (
	"strings"
	"testing"
)

func TestBuilderBuildsSpecification(t *testing.T) {
	spec, err := NewBuilder("糖尿病随访").
		SetJourneyID("diabetes-followup").
		SetDescription("确诊后的标准随访路径").
		SetVersion("1.0.0").
		SetProduct("medical").
		AddEvent("visit", "确诊就诊", "encounter").
		AddEvent("rx", "初始处方", "prescription").
		SetEventProduct("rx", "pharmacy").
		SetDelay("rx", FixedDelay(1, UnitDays)).
		SetDependsOn("rx", "visit").
		AddCondition("rx", "demographics.age", ">=", 18).
		SetParameters("rx", map[string]any{"drug": "metformin"}).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	if spec.JourneyID != "diabetes-followup" {
		t.Errorf("期望旅程ID为diabetes-followup，实际为: %s", spec.JourneyID)
	}
	if len(spec.Events) != 2 {
		t.Fatalf("期望2个事件定义，实际为: %d", len(spec.Events))
	}

	rx, ok := spec.FindEvent("rx")
	if !ok {
		t.Fatal("未找到rx事件定义")
	}
	if rx.DependsOn != "visit" {
		t.Errorf("期望rx依赖visit，实际为: %s", rx.DependsOn)
	}
	if len(rx.Conditions) != 1 {
		t.Errorf("期望1个条件，实际为: %d", len(rx.Conditions))
	}
	if rx.Parameters["drug"] != "metformin" {
		t.Errorf("期望参数被设置，实际为: %v", rx.Parameters)
	}

	// 事件级product优先于旅程级
	if spec.EventProduct(rx) != "pharmacy" {
		t.Errorf("期望rx使用pharmacy命名空间，实际为: %s", spec.EventProduct(rx))
	}
	visit, _ := spec.FindEvent("visit")
	if spec.EventProduct(visit) != "medical" {
		t.Errorf("期望visit回退到旅程级命名空间，实际为: %s", spec.EventProduct(visit))
	}
}

func TestBuilderGeneratesJourneyID(t *testing.T) {
	spec, err := NewBuilder("匿名旅程").
		AddEvent("only", "唯一事件", "encounter").
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	if !strings.HasPrefix(spec.JourneyID, "jrn_") {
		t.Errorf("期望自动生成jrn_前缀ID，实际为: %s", spec.JourneyID)
	}
}

func TestValidateRejectsEmptyJourney(t *testing.T) {
	_, err := NewBuilder("空旅程").Build()
	if err == nil {
		t.Fatal("期望无事件的旅程校验失败")
	}
}

func TestValidateRejectsDuplicateEventID(t *testing.T) {
	_, err := NewBuilder("重复事件").
		AddEvent("same", "事件1", "encounter").
		AddEvent("same", "事件2", "encounter").
		Build()
	if err == nil {
		t.Fatal("期望重复事件ID校验失败")
	}
}

func TestValidateRejectsForwardDependency(t *testing.T) {
	_, err := NewBuilder("前向依赖").
		AddEvent("first", "事件1", "encounter").
		SetDependsOn("first", "second").
		AddEvent("second", "事件2", "encounter").
		Build()
	if err == nil {
		t.Fatal("期望前向依赖校验失败")
	}
}

func TestValidateRejectsInvalidDelay(t *testing.T) {
	_, err := NewBuilder("非法延迟").
		AddEvent("ev", "事件", "encounter").
		SetDelay("ev", RangeDelay(10, 5, UnitDays)).
		Build()
	if err == nil {
		t.Fatal("期望max<min的区间延迟校验失败")
	}

	_, err = NewBuilder("负延迟").
		AddEvent("ev", "事件", "encounter").
		SetDelay("ev", FixedDelay(-1, UnitDays)).
		Build()
	if err == nil {
		t.Fatal("期望负延迟校验失败")
	}
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	_, err := NewBuilder("非法运算符").
		AddEvent("ev", "事件", "encounter").
		AddCondition("ev", "demographics.age", "~=", 10).
		Build()
	if err == nil {
		t.Fatal("期望未知运算符校验失败")
	}
}

func TestDelayUnitDays(t *testing.T) {
	if UnitDays.Days() != 1 || UnitWeeks.Days() != 7 || UnitMonths.Days() != 30 {
		t.Errorf("单位换算不符: days=%d weeks=%d months=%d", UnitDays.Days(), UnitWeeks.Days(), UnitMonths.Days())
	}
}
