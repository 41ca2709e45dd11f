package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/logger"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
	"github.com/mark64oswald/healthsim-skills-sub002/engine"
)

// SimulationRequest 单次仿真请求
type SimulationRequest struct {
	JourneyID  string         `json:"journey_id"`
	Entity     map[string]any `json:"entity"`
	EntityType string         `json:"entity_type,omitempty"`
	StartDate  time.Time      `json:"start_date"`
	UpToDate   time.Time      `json:"up_to_date,omitempty"` // 零值表示执行到时间线末尾
	Parameters map[string]any `json:"parameters,omitempty"` // 注入条件上下文的参数
}

// SimulationResult 单次仿真结果
type SimulationResult struct {
	RunID    string                    `json:"run_id"`
	Timeline *timeline.Timeline        `json:"timeline"`
	Results  []*engine.ExecutionResult `json:"results"`
	Executed int                       `json:"executed"`
	Failed   int                       `json:"failed"`
	Skipped  int                       `json:"skipped"`
}

// TimelineStatus 时间线执行状态
type TimelineStatus struct {
	timelineID string
	total      int
	pending    int
	executed   int
	failed     int
	skipped    int
	progress   float64
	isComplete bool
}

// TimelineStatus getter methods
func (s *TimelineStatus) TimelineID() string { return s.timelineID }
func (s *TimelineStatus) Total() int         { return s.total }
func (s *TimelineStatus) Pending() int       { return s.pending }
func (s *TimelineStatus) Executed() int      { return s.executed }
func (s *TimelineStatus) Failed() int        { return s.failed }
func (s *TimelineStatus) Skipped() int       { return s.skipped }
func (s *TimelineStatus) Progress() float64  { return s.progress }
func (s *TimelineStatus) IsComplete() bool   { return s.isComplete }

// SimulationService 仿真应用服务：编排时间线的构建、执行与持久化
type SimulationService struct {
	engine       engine.Engine
	timelineRepo timeline.Repository
	logger       logger.LoggerService
	eventPub     EventPublisher
}

// NewSimulationService 创建仿真服务。仓储、日志与事件发布器均可为nil，
// 此时对应能力跳过。
func NewSimulationService(eng engine.Engine, timelineRepo timeline.Repository, log logger.LoggerService, eventPub EventPublisher) *SimulationService {
	return &SimulationService{
		engine:       eng,
		timelineRepo: timelineRepo,
		logger:       log,
		eventPub:     eventPub,
	}
}

// Simulate 执行一次完整仿真：展开时间线并执行到请求的截止日期
func (s *SimulationService) Simulate(ctx context.Context, req *SimulationRequest) (*SimulationResult, error) {
	tl, err := s.CreateTimeline(req)
	if err != nil {
		return nil, err
	}

	upToDate := req.UpToDate
	if upToDate.IsZero() {
		upToDate = tl.EndDate
	}

	entity := engine.MapEntity(req.Entity)
	results := s.engine.ExecuteTimeline(tl, entity, upToDate, nil)

	result := &SimulationResult{
		RunID:    generateRunID(),
		Timeline: tl,
		Results:  results,
	}
	for _, r := range results {
		switch r.Status {
		case engine.ResultExecuted:
			result.Executed++
		case engine.ResultFailed:
			result.Failed++
		case engine.ResultSkipped:
			result.Skipped++
		}
	}

	if s.logger != nil {
		logCtx := logger.WithTimelineID(ctx, tl.ID)
		s.logger.Info(logCtx, "simulation completed", map[string]interface{}{
			"run_id":   result.RunID,
			"journey":  req.JourneyID,
			"executed": result.Executed,
			"failed":   result.Failed,
			"skipped":  result.Skipped,
		})
	}

	// 保存执行后的时间线（无论是否有失败事件）
	if s.timelineRepo != nil {
		if saveErr := s.timelineRepo.SaveTimeline(tl); saveErr != nil {
			fmt.Printf("Failed to save timeline: %v\n", saveErr)
		}
	}

	if s.eventPub != nil {
		s.eventPub.Publish(NewTimelineEvent("simulation.completed", tl.ID, map[string]interface{}{
			"run_id":   result.RunID,
			"executed": result.Executed,
			"failed":   result.Failed,
			"skipped":  result.Skipped,
		}))
	}

	return result, nil
}

// CreateTimeline 仅展开时间线，不执行
func (s *SimulationService) CreateTimeline(req *SimulationRequest) (*timeline.Timeline, error) {
	if req == nil {
		return nil, NewApplicationError("simulation request cannot be nil")
	}

	spec, err := s.engine.GetJourney(req.JourneyID)
	if err != nil {
		return nil, NewApplicationErrorf("journey not found: %s", req.JourneyID)
	}

	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = time.Now()
	}

	entity := engine.MapEntity(req.Entity)
	tl, err := s.engine.CreateTimeline(entity, req.EntityType, spec, startDate, req.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to create timeline: %w", err)
	}

	return tl, nil
}

// ExecuteTimeline 执行已保存时间线的待执行事件
func (s *SimulationService) ExecuteTimeline(ctx context.Context, timelineID string, entity map[string]any, upToDate time.Time) ([]*engine.ExecutionResult, error) {
	if s.timelineRepo == nil {
		return nil, NewApplicationError("timeline repository is not configured")
	}

	tl, err := s.timelineRepo.FindTimelineByID(timelineID)
	if err != nil {
		return nil, NewApplicationErrorf("timeline not found: %s", timelineID)
	}

	if upToDate.IsZero() {
		upToDate = tl.EndDate
	}

	results := s.engine.ExecuteTimeline(tl, engine.MapEntity(entity), upToDate, nil)

	if err := s.timelineRepo.UpdateTimeline(tl); err != nil {
		fmt.Printf("Failed to update timeline: %v\n", err)
	}

	return results, nil
}

// GetTimeline 获取时间线
func (s *SimulationService) GetTimeline(timelineID string) (*timeline.Timeline, error) {
	if s.timelineRepo == nil {
		return nil, NewApplicationError("timeline repository is not configured")
	}
	return s.timelineRepo.FindTimelineByID(timelineID)
}

// ListTimelines 列出时间线
func (s *SimulationService) ListTimelines(entityID string, limit, offset int) ([]*timeline.Timeline, error) {
	if s.timelineRepo == nil {
		return nil, NewApplicationError("timeline repository is not configured")
	}
	return s.timelineRepo.ListTimelines(entityID, limit, offset)
}

// GetTimelineStatus 获取时间线执行状态
func (s *SimulationService) GetTimelineStatus(timelineID string) (*TimelineStatus, error) {
	tl, err := s.GetTimeline(timelineID)
	if err != nil {
		return nil, err
	}

	counts := tl.CountByStatus()
	return &TimelineStatus{
		timelineID: tl.ID,
		total:      len(tl.Events),
		pending:    counts[timeline.StatusPending],
		executed:   counts[timeline.StatusExecuted],
		failed:     counts[timeline.StatusFailed],
		skipped:    counts[timeline.StatusSkipped],
		progress:   tl.Progress(),
		isComplete: tl.IsComplete(),
	}, nil
}

// GetTimelineLogs 获取时间线的仿真日志
func (s *SimulationService) GetTimelineLogs(timelineID string, limit, offset int) ([]*logger.LogEntry, error) {
	if s.logger == nil {
		return nil, NewApplicationError("logger service is not configured")
	}
	return s.logger.GetLogs(timelineID, limit, offset)
}

// generateRunID 生成仿真运行ID
func generateRunID() string {
	return fmt.Sprintf("run_%s", uuid.New().String())
}
