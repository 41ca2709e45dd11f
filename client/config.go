package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mark64oswald/healthsim-skills-sub002/application"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/logger"
	"github.com/mark64oswald/healthsim-skills-sub002/engine"
	"github.com/mark64oswald/healthsim-skills-sub002/infrastructure/persistence/memory"
	"github.com/mark64oswald/healthsim-skills-sub002/infrastructure/persistence/mysql"
	"github.com/mark64oswald/healthsim-skills-sub002/interfaces/web"
)

// Config 服务配置，支持从环境变量装载（前缀HEALTHSIM）
type Config struct {
	MySQLDSN    string `envconfig:"MYSQL_DSN" default:""`
	WebPort     int    `envconfig:"WEB_PORT" default:"8080"`
	JourneysDir string `envconfig:"JOURNEYS_DIR" default:""`
	Seed        int64  `envconfig:"SEED" default:"0"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		WebPort: 8080,
	}
}

// ConfigFromEnv 从环境变量装载配置
func ConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("HEALTHSIM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return &cfg, nil
}

// Service 装配完成的仿真服务栈
type Service struct {
	Client            *Client
	JourneyService    *application.JourneyService
	SimulationService *application.SimulationService
	WebServer         *web.Server
	loggerService     logger.LoggerService
}

// NewService 按配置装配服务栈。未配置MySQL DSN时时间线与日志不持久化。
func NewService(cfg *Config, opts ...engine.EngineOption) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Seed))
	}

	client := NewClient(opts...)

	var loggerService logger.LoggerService

	journeyRepo := memory.NewJourneyRepository()
	journeyService := application.NewJourneyService(journeyRepo, client.Engine())

	var simulationService *application.SimulationService
	if cfg.MySQLDSN != "" {
		tlRepo, err := mysql.NewTimelineRepository(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create timeline repository: %w", err)
		}
		logRepo, err := mysql.NewLogRepository(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create log repository: %w", err)
		}
		loggerService = logger.NewLoggerService(logRepo, 100, 5*time.Second)
		simulationService = application.NewSimulationService(client.Engine(), tlRepo, loggerService, nil)
	} else {
		simulationService = application.NewSimulationService(client.Engine(), nil, nil, nil)
	}

	webServer := web.NewServer(journeyService, simulationService, cfg.WebPort)

	return &Service{
		Client:            client,
		JourneyService:    journeyService,
		SimulationService: simulationService,
		WebServer:         webServer,
		loggerService:     loggerService,
	}, nil
}

// QuickStart 以默认配置快速装配服务栈
func QuickStart(dsn string, port int) (*Service, error) {
	cfg := DefaultConfig()
	cfg.MySQLDSN = dsn
	if port > 0 {
		cfg.WebPort = port
	}
	return NewService(cfg)
}

// Close 关闭服务栈
func (s *Service) Close() error {
	if s.loggerService != nil {
		s.loggerService.Close()
	}
	return s.Client.Close()
}
