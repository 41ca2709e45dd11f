package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/application"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
)

// SimulationRequest 仿真请求
type SimulationRequest struct {
	JourneyID  string                 `json:"journey_id"`
	Entity     map[string]interface{} `json:"entity"`
	EntityType string                 `json:"entity_type"`
	StartDate  time.Time              `json:"start_date"`
	UpToDate   time.Time              `json:"up_to_date"`
	Parameters map[string]interface{} `json:"parameters"`
}

// JourneyResponse 旅程响应
type JourneyResponse struct {
	JourneyID   string    `json:"journey_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Product     string    `json:"product"`
	EventCount  int       `json:"event_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimelineResponse 时间线响应
type TimelineResponse struct {
	TimelineID string            `json:"timeline_id"`
	EntityID   string            `json:"entity_id"`
	EntityType string            `json:"entity_type"`
	JourneyIDs []string          `json:"journey_ids"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
	EventCount int               `json:"event_count"`
	Progress   float64           `json:"progress"`
	IsComplete bool              `json:"is_complete"`
	Events     []*timeline.Event `json:"events,omitempty"`
}

// TimelineStatusResponse 时间线状态响应
type TimelineStatusResponse struct {
	TimelineID string  `json:"timeline_id"`
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Executed   int     `json:"executed"`
	Failed     int     `json:"failed"`
	Skipped    int     `json:"skipped"`
	Progress   float64 `json:"progress"`
	IsComplete bool    `json:"is_complete"`
}

// LogEntryResponse 日志条目响应
type LogEntryResponse struct {
	ID         string    `json:"id"`
	TimelineID string    `json:"timeline_id"`
	EventID    string    `json:"event_id"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// listJourneys 列出旅程
func (s *Server) listJourneys(w http.ResponseWriter, r *http.Request) {
	journeys, err := s.journeyService.FindAll()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var response []JourneyResponse
	for _, j := range journeys {
		response = append(response, JourneyResponse{
			JourneyID:   j.JourneyID,
			Name:        j.Name,
			Description: j.Description,
			Version:     j.Version,
			Product:     j.Product,
			EventCount:  len(j.Events),
			CreatedAt:   j.CreatedAt,
			UpdatedAt:   j.UpdatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, response)
}

// getJourney 获取旅程
func (s *Server) getJourney(w http.ResponseWriter, r *http.Request, journeyID string) {
	spec, err := s.journeyService.FindByID(journeyID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Journey not found")
		return
	}

	s.writeJSON(w, http.StatusOK, spec)
}

// deleteJourney 删除旅程
func (s *Server) deleteJourney(w http.ResponseWriter, r *http.Request, journeyID string) {
	if err := s.journeyService.Delete(journeyID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Journey deleted successfully"})
}

// createSimulation 创建并执行一次仿真
func (s *Server) createSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.JourneyID == "" {
		s.writeError(w, http.StatusBadRequest, "Journey ID is required")
		return
	}

	result, err := s.simulationService.Simulate(context.Background(), &application.SimulationRequest{
		JourneyID:  req.JourneyID,
		Entity:     req.Entity,
		EntityType: req.EntityType,
		StartDate:  req.StartDate,
		UpToDate:   req.UpToDate,
		Parameters: req.Parameters,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// listTimelines 列出时间线
func (s *Server) listTimelines(w http.ResponseWriter, r *http.Request) {
	entityID := r.URL.Query().Get("entity_id")
	limit := s.parseIntParam(r, "limit", 20)
	offset := s.parseIntParam(r, "offset", 0)

	timelines, err := s.simulationService.ListTimelines(entityID, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var response []TimelineResponse
	for _, t := range timelines {
		response = append(response, TimelineResponse{
			TimelineID: t.ID,
			EntityID:   t.EntityID,
			EntityType: t.EntityType,
			JourneyIDs: t.JourneyIDs,
			StartDate:  t.StartDate,
			EndDate:    t.EndDate,
			EventCount: len(t.Events),
			Progress:   t.Progress(),
			IsComplete: t.IsComplete(),
		})
	}

	s.writeJSON(w, http.StatusOK, response)
}

// getTimeline 获取时间线（含事件明细）
func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request, timelineID string) {
	t, err := s.simulationService.GetTimeline(timelineID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Timeline not found")
		return
	}

	response := TimelineResponse{
		TimelineID: t.ID,
		EntityID:   t.EntityID,
		EntityType: t.EntityType,
		JourneyIDs: t.JourneyIDs,
		StartDate:  t.StartDate,
		EndDate:    t.EndDate,
		EventCount: len(t.Events),
		Progress:   t.Progress(),
		IsComplete: t.IsComplete(),
		Events:     t.Events,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// getTimelineStatus 获取时间线执行状态
func (s *Server) getTimelineStatus(w http.ResponseWriter, r *http.Request, timelineID string) {
	status, err := s.simulationService.GetTimelineStatus(timelineID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Timeline status not found")
		return
	}

	response := TimelineStatusResponse{
		TimelineID: status.TimelineID(),
		Total:      status.Total(),
		Pending:    status.Pending(),
		Executed:   status.Executed(),
		Failed:     status.Failed(),
		Skipped:    status.Skipped(),
		Progress:   status.Progress(),
		IsComplete: status.IsComplete(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// getTimelineLogs 获取时间线仿真日志
func (s *Server) getTimelineLogs(w http.ResponseWriter, r *http.Request, timelineID string) {
	limit := s.parseIntParam(r, "limit", 100)
	offset := s.parseIntParam(r, "offset", 0)

	logs, err := s.simulationService.GetTimelineLogs(timelineID, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var response []LogEntryResponse
	for _, entry := range logs {
		response = append(response, LogEntryResponse{
			ID:         entry.ID(),
			TimelineID: entry.TimelineID(),
			EventID:    entry.EventID(),
			Level:      string(entry.Level()),
			Message:    entry.Message(),
			Timestamp:  entry.Timestamp(),
		})
	}

	s.writeJSON(w, http.StatusOK, response)
}
