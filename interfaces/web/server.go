package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/application"
)

// Server Web服务器
type Server struct {
	journeyService    *application.JourneyService
	simulationService *application.SimulationService
	port              int
	mux               *http.ServeMux
}

// NewServer 创建Web服务器
func NewServer(
	journeyService *application.JourneyService,
	simulationService *application.SimulationService,
	port int,
) *Server {
	server := &Server{
		journeyService:    journeyService,
		simulationService: simulationService,
		port:              port,
		mux:               http.NewServeMux(),
	}

	server.setupRoutes()
	return server
}

// Start 启动服务器
func (s *Server) Start() error {
	log.Printf("🌐 Starting web server on port %d", s.port)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.port), s.enableCORS(s.mux))
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/v1/journeys", s.handleJourneys)
	s.mux.HandleFunc("/api/v1/journeys/", s.handleJourneyByID)
	s.mux.HandleFunc("/api/v1/simulations", s.handleSimulations)
	s.mux.HandleFunc("/api/v1/timelines", s.handleTimelines)
	s.mux.HandleFunc("/api/v1/timelines/", s.handleTimelineByID)
	s.mux.HandleFunc("/api/v1/health", s.handleHealth)
}

// enableCORS 启用CORS
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleJourneys 处理旅程集合请求
func (s *Server) handleJourneys(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		s.listJourneys(w, r)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleJourneyByID 处理特定旅程请求
func (s *Server) handleJourneyByID(w http.ResponseWriter, r *http.Request) {
	journeyID := s.extractIDFromPath(r.URL.Path, "/api/v1/journeys/")
	if journeyID == "" || strings.Contains(journeyID, "/") {
		s.writeError(w, http.StatusBadRequest, "Invalid journey ID")
		return
	}

	switch r.Method {
	case "GET":
		s.getJourney(w, r, journeyID)
	case "DELETE":
		s.deleteJourney(w, r, journeyID)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSimulations 处理仿真请求
func (s *Server) handleSimulations(w http.ResponseWriter, r *http.Request) {
	if r.Method == "POST" {
		s.createSimulation(w, r)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTimelines 处理时间线集合请求
func (s *Server) handleTimelines(w http.ResponseWriter, r *http.Request) {
	if r.Method == "GET" {
		s.listTimelines(w, r)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTimelineByID 处理特定时间线请求
func (s *Server) handleTimelineByID(w http.ResponseWriter, r *http.Request) {
	timelineID := s.extractIDFromPath(r.URL.Path, "/api/v1/timelines/")
	if timelineID == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid timeline ID")
		return
	}

	// 处理子路径
	if strings.Contains(timelineID, "/") {
		parts := strings.Split(timelineID, "/")
		timelineID = parts[0]
		subPath := parts[1]

		switch subPath {
		case "status":
			if r.Method == "GET" {
				s.getTimelineStatus(w, r, timelineID)
			} else {
				s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case "logs":
			if r.Method == "GET" {
				s.getTimelineLogs(w, r, timelineID)
			} else {
				s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		default:
			s.writeError(w, http.StatusNotFound, "Not found")
		}
		return
	}

	switch r.Method {
	case "GET":
		s.getTimeline(w, r, timelineID)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// 工具方法
func (s *Server) extractIDFromPath(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) parseIntParam(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
