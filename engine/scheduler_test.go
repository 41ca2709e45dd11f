package engine

import (
	"testing"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// buildJourney 构建测试旅程：A(0天) -> B(依赖A，14天) -> C(90天)
func buildJourney(t *testing.T) *journey.Specification {
	t.Helper()

	spec, err := journey.NewBuilder("测试旅程").
		SetJourneyID("test-journey").
		SetProduct("medical").
		AddEvent("A", "事件A", "encounter").
		AddEvent("B", "事件B", "claim").
		SetDelay("B", journey.FixedDelay(14, journey.UnitDays)).
		SetDependsOn("B", "A").
		AddEvent("C", "事件C", "encounter").
		SetDelay("C", journey.FixedDelay(90, journey.UnitDays)).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}
	return spec
}

func testEntity() MapEntity {
	return MapEntity{
		"id": "member_001",
		"demographics": map[string]any{
			"age":    54,
			"gender": "F",
		},
		"conditions": []any{"E11.9"},
	}
}

func TestCreateTimelineDependencyAnchoring(t *testing.T) {
	eng := NewEngine(WithSeed(42))
	spec := buildJourney(t)

	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	if len(tl.Events) != 3 {
		t.Fatalf("期望3个事件，实际为: %d", len(tl.Events))
	}

	dates := make(map[string]time.Time)
	for _, ev := range tl.Events {
		dates[ev.DefinitionID] = ev.ScheduledDate
	}

	// A落在起始日
	if !dates["A"].Equal(testStart) {
		t.Errorf("期望A排在%v，实际为: %v", testStart, dates["A"])
	}

	// B锚定A的日期+14天
	wantB := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !dates["B"].Equal(wantB) {
		t.Errorf("期望B排在%v，实际为: %v", wantB, dates["B"])
	}

	// C基于游标(仍在A，B不推进游标)+90天
	wantC := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !dates["C"].Equal(wantC) {
		t.Errorf("期望C排在%v，实际为: %v", wantC, dates["C"])
	}

	// 结束日期为最晚事件日期
	if !tl.EndDate.Equal(wantC) {
		t.Errorf("期望结束日期为%v，实际为: %v", wantC, tl.EndDate)
	}
}

func TestCreateTimelineDeterministicWithSeed(t *testing.T) {
	spec, err := journey.NewBuilder("区间延迟旅程").
		SetJourneyID("range-journey").
		SetProduct("medical").
		AddEvent("first", "首次就诊", "encounter").
		AddEvent("second", "复诊", "encounter").
		SetDelay("second", journey.RangeDelay(30, 60, journey.UnitDays)).
		AddEvent("third", "再复诊", "encounter").
		SetDelay("third", journey.RangeDelay(30, 60, journey.UnitDays)).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	run := func() []time.Time {
		eng := NewEngine(WithSeed(7))
		tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
		if err != nil {
			t.Fatalf("创建时间线失败: %v", err)
		}
		dates := make([]time.Time, 0, len(tl.Events))
		for _, ev := range tl.Events {
			dates = append(dates, ev.ScheduledDate)
		}
		return dates
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("两次展开事件数不一致: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("相同种子下第%d个事件日期不一致: %v vs %v", i, first[i], second[i])
		}
	}

	// 区间延迟落在[30,60]天内
	for i := 1; i < len(first); i++ {
		gap := first[i].Sub(first[i-1])
		if gap < 30*24*time.Hour || gap > 60*24*time.Hour {
			t.Errorf("区间延迟超出[30,60]天: %v", gap)
		}
	}
}

func TestCreateTimelineConditionExcludesEvent(t *testing.T) {
	spec, err := journey.NewBuilder("条件旅程").
		SetJourneyID("cond-journey").
		SetProduct("medical").
		AddEvent("adult_only", "成人事件", "encounter").
		AddCondition("adult_only", "demographics.age", ">=", 65).
		AddEvent("everyone", "通用事件", "encounter").
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	eng := NewEngine(WithSeed(1))
	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	// 54岁不满足>=65，事件被排除
	if len(tl.Events) != 1 {
		t.Fatalf("期望1个事件，实际为: %d", len(tl.Events))
	}
	if tl.Events[0].DefinitionID != "everyone" {
		t.Errorf("期望保留everyone，实际为: %s", tl.Events[0].DefinitionID)
	}
}

func TestCreateTimelineSkippedDependencyFallsBackToCursor(t *testing.T) {
	spec, err := journey.NewBuilder("依赖被条件排除").
		SetJourneyID("skip-dep-journey").
		SetProduct("medical").
		AddEvent("base", "基础事件", "encounter").
		SetDelay("base", journey.FixedDelay(10, journey.UnitDays)).
		AddEvent("optional", "可选事件", "encounter").
		AddCondition("optional", "demographics.age", ">=", 100).
		AddEvent("dependent", "依赖事件", "claim").
		SetDelay("dependent", journey.FixedDelay(5, journey.UnitDays)).
		SetDependsOn("dependent", "optional").
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	eng := NewEngine(WithSeed(1))
	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	// optional被排除，dependent依赖已声明但不在线上，回退到游标
	if len(tl.Events) != 2 {
		t.Fatalf("期望2个事件，实际为: %d", len(tl.Events))
	}

	want := testStart.Add(15 * 24 * time.Hour) // base(+10) + dependent(+5)
	ev, ok := findByDefinition(tl.Events, "dependent")
	if !ok {
		t.Fatal("未找到dependent事件")
	}
	if !ev.ScheduledDate.Equal(want) {
		t.Errorf("期望dependent排在%v，实际为: %v", want, ev.ScheduledDate)
	}
}

func TestCreateTimelineForwardDependencyRejected(t *testing.T) {
	// 绕过构建器校验，直接构造前向依赖的规格
	spec := &journey.Specification{
		JourneyID: "forward-dep",
		Name:      "前向依赖",
		Product:   "medical",
		Events: []journey.EventDefinition{
			{EventID: "X", Name: "X", EventType: "encounter", Delay: journey.FixedDelay(0, journey.UnitDays), DependsOn: "Y"},
			{EventID: "Y", Name: "Y", EventType: "encounter", Delay: journey.FixedDelay(3, journey.UnitDays)},
		},
	}

	eng := NewEngine(WithSeed(1))
	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	// X的依赖为前向引用，整个定义被拒绝；Y正常排期
	if len(tl.Events) != 1 {
		t.Fatalf("期望1个事件，实际为: %d", len(tl.Events))
	}
	if tl.Events[0].DefinitionID != "Y" {
		t.Errorf("期望保留Y，实际为: %s", tl.Events[0].DefinitionID)
	}
}

func TestCreateTimelineMonthUnit(t *testing.T) {
	spec, err := journey.NewBuilder("月单位旅程").
		SetJourneyID("month-journey").
		SetProduct("medical").
		AddEvent("start", "起点", "encounter").
		AddEvent("quarterly", "季度复查", "lab_test").
		SetDelay("quarterly", journey.FixedDelay(3, journey.UnitMonths)).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	eng := NewEngine(WithSeed(1))
	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	// 月按30天换算
	want := testStart.Add(90 * 24 * time.Hour)
	ev, _ := findByDefinition(tl.Events, "quarterly")
	if !ev.ScheduledDate.Equal(want) {
		t.Errorf("期望quarterly排在%v，实际为: %v", want, ev.ScheduledDate)
	}
}

func TestExtendTimelineMergesJourneys(t *testing.T) {
	eng := NewEngine(WithSeed(42))
	spec := buildJourney(t)

	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	second, err := journey.NewBuilder("第二旅程").
		SetJourneyID("second-journey").
		SetProduct("pharmacy").
		AddEvent("rx", "处方", "prescription").
		SetDelay("rx", journey.FixedDelay(7, journey.UnitDays)).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	if err := eng.ExtendTimeline(tl, second, testEntity(), nil); err != nil {
		t.Fatalf("扩展时间线失败: %v", err)
	}

	if len(tl.Events) != 4 {
		t.Fatalf("期望4个事件，实际为: %d", len(tl.Events))
	}
	if len(tl.JourneyIDs) != 2 {
		t.Fatalf("期望2个旅程参与，实际为: %d", len(tl.JourneyIDs))
	}

	// 追加旅程的游标从时间线起始日重新开始
	ev, ok := findByDefinition(tl.Events, "rx")
	if !ok {
		t.Fatal("未找到rx事件")
	}
	want := testStart.Add(7 * 24 * time.Hour)
	if !ev.ScheduledDate.Equal(want) {
		t.Errorf("期望rx排在%v，实际为: %v", want, ev.ScheduledDate)
	}

	// 合并后保持日期升序
	for i := 1; i < len(tl.Events); i++ {
		if tl.Events[i].ScheduledDate.Before(tl.Events[i-1].ScheduledDate) {
			t.Errorf("合并后事件未按日期排序: %v 在 %v 之后", tl.Events[i].ScheduledDate, tl.Events[i-1].ScheduledDate)
		}
	}
}

func TestCreateTimelineClonesParameters(t *testing.T) {
	params := map[string]any{
		"dosage": map[string]any{"amount": 500},
	}
	spec, err := journey.NewBuilder("参数隔离").
		SetJourneyID("param-journey").
		SetProduct("pharmacy").
		AddEvent("rx", "处方", "prescription").
		SetParameters("rx", params).
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}

	eng := NewEngine(WithSeed(1))
	tl, err := eng.CreateTimeline(testEntity(), "member", spec, testStart, nil)
	if err != nil {
		t.Fatalf("创建时间线失败: %v", err)
	}

	// 修改时间线事件参数不应影响规格
	tl.Events[0].Parameters["dosage"].(map[string]any)["amount"] = 999
	if params["dosage"].(map[string]any)["amount"] != 500 {
		t.Error("时间线参数修改污染了旅程规格")
	}
}

func findByDefinition(events []*timeline.Event, definitionID string) (*timeline.Event, bool) {
	for _, ev := range events {
		if ev.DefinitionID == definitionID {
			return ev, true
		}
	}
	return nil, false
}
