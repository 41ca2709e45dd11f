package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mark64oswald/healthsim-skills-sub002/application"
	"github.com/mark64oswald/healthsim-skills-sub002/client"
	"github.com/mark64oswald/healthsim-skills-sub002/domain/timeline"
	"github.com/mark64oswald/healthsim-skills-sub002/engine"
	"github.com/mark64oswald/healthsim-skills-sub002/infrastructure/loader"
)

func main() {
	var (
		dsn         = flag.String("dsn", "", "MySQL DSN (empty for in-memory only)")
		port        = flag.Int("port", 8080, "Web server port")
		journeysDir = flag.String("journeys", "", "Directory of journey YAML files to register")
		seed        = flag.Int64("seed", 0, "Random seed for reproducible timelines (0 for time-based)")
		example     = flag.String("example", "", "Run example simulation (diabetes)")
		noDaemon    = flag.Bool("no-daemon", false, "Don't run as daemon, exit after example")
	)
	flag.Parse()

	fmt.Println("🚀 Journey Engine Server Starting...")

	var opts []engine.EngineOption
	if *seed != 0 {
		opts = append(opts, engine.WithSeed(*seed))
	}

	cfg := client.DefaultConfig()
	cfg.MySQLDSN = *dsn
	cfg.WebPort = *port

	service, err := client.NewService(cfg, opts...)
	if err != nil {
		log.Fatalf("启动服务失败: %v", err)
	}
	defer service.Close()

	registerDemoHandlers(service.Client)

	// 注册示例旅程
	if err := registerDemoJourneys(service); err != nil {
		log.Printf("注册示例旅程失败: %v", err)
	}

	// 从目录装载旅程文件
	if *journeysDir != "" {
		if err := registerJourneyFiles(service, *journeysDir); err != nil {
			log.Fatalf("装载旅程文件失败: %v", err)
		}
	}

	// 如果指定了示例，运行示例仿真
	if *example != "" {
		if err := runExample(service, *example); err != nil {
			log.Fatalf("运行示例失败: %v", err)
		}

		if *noDaemon {
			return
		}
	}

	go func() {
		if err := service.WebServer.Start(); err != nil {
			log.Fatalf("Web服务器启动失败: %v", err)
		}
	}()

	fmt.Printf("✅ 服务器已启动\n")
	fmt.Printf("📖 API入口: http://localhost:%d/api/v1/\n", *port)
	fmt.Println("🔄 按 Ctrl+C 停止服务器")

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n🛑 正在停止服务器...")
}

// registerJourneyFiles 从目录装载并注册旅程文件
func registerJourneyFiles(service *client.Service, dir string) error {
	specs, err := loader.LoadDir(dir)
	if err != nil {
		return err
	}

	for _, spec := range specs {
		if err := service.JourneyService.Register(spec); err != nil {
			return fmt.Errorf("注册旅程 %s 失败: %w", spec.JourneyID, err)
		}
		fmt.Printf("📋 旅程已注册: %s (%d个事件)\n", spec.JourneyID, len(spec.Events))
	}

	return nil
}

// registerDemoHandlers 注册示例领域处理器
func registerDemoHandlers(c *client.Client) {
	// 就诊事件：产出就诊记录引用
	c.RegisterHandler("medical", "encounter", func(entity engine.Entity, ev *timeline.Event, execCtx map[string]any) (map[string]any, error) {
		encounterID := fmt.Sprintf("enc_%s", uuid.New().String())
		return map[string]any{
			"encounter_id": encounterID,
			"entity_refs": map[string]any{
				"encounter": encounterID,
			},
		}, nil
	})

	// 理赔事件：产出理赔记录引用
	c.RegisterHandler("medical", "claim", func(entity engine.Entity, ev *timeline.Event, execCtx map[string]any) (map[string]any, error) {
		claimID := fmt.Sprintf("clm_%s", uuid.New().String())
		return map[string]any{
			"claim_id": claimID,
			"status":   "submitted",
			"entity_refs": map[string]any{
				"claim": claimID,
			},
		}, nil
	})

	// 处方事件：产出处方记录引用
	c.RegisterHandler("pharmacy", "prescription", func(entity engine.Entity, ev *timeline.Event, execCtx map[string]any) (map[string]any, error) {
		rxID := fmt.Sprintf("rx_%s", uuid.New().String())
		return map[string]any{
			"prescription_id": rxID,
			"entity_refs": map[string]any{
				"prescription": rxID,
			},
		}, nil
	})

	// 检验事件
	c.RegisterHandler("medical", "lab_test", func(entity engine.Entity, ev *timeline.Event, execCtx map[string]any) (map[string]any, error) {
		return map[string]any{
			"lab_id":       fmt.Sprintf("lab_%s", uuid.New().String()),
			"result_ready": true,
		}, nil
	})
}

// registerDemoJourneys 注册示例旅程
func registerDemoJourneys(service *client.Service) error {
	// 糖尿病确诊后随访旅程：确诊就诊 -> 处方 -> 复查检验 -> 随访就诊
	spec, err := service.Client.CreateJourney("Diabetes Follow-up").
		SetJourneyID("diabetes-followup").
		SetVersion("1.0.0").
		SetProduct("medical").
		AddFixedEvent("diagnosis_visit", "确诊就诊", "encounter", 0).
		AddFixedEvent("initial_rx", "初始处方", "prescription", 1).
		SetEventProduct("initial_rx", "pharmacy").
		SetDependsOn("initial_rx", "diagnosis_visit").
		AddRangeEvent("hba1c_test", "HbA1c复查", "lab_test", 85, 95).
		AddFixedEvent("followup_visit", "随访就诊", "encounter", 7).
		SetDependsOn("followup_visit", "hba1c_test").
		AddCondition("followup_visit", "demographics.age", ">=", 18).
		Register()
	if err != nil {
		return err
	}

	// 同步到仓储，供Web接口查询
	if err := service.JourneyService.Register(spec); err != nil {
		return err
	}

	fmt.Println("✅ 示例旅程已注册: diabetes-followup")
	return nil
}

// runExample 运行示例仿真
func runExample(service *client.Service, name string) error {
	switch name {
	case "diabetes":
		return runDiabetesExample(service)
	default:
		return fmt.Errorf("未知示例: %s", name)
	}
}

func runDiabetesExample(service *client.Service) error {
	fmt.Println("🔬 运行糖尿病随访示例仿真...")

	startDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := service.SimulationService.Simulate(context.Background(), &application.SimulationRequest{
		JourneyID:  "diabetes-followup",
		EntityType: "member",
		StartDate:  startDate,
		Entity: map[string]any{
			"id": "member_demo_001",
			"demographics": map[string]any{
				"age":    54,
				"gender": "F",
			},
			"conditions": []any{"E11.9"},
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ 仿真完成: run=%s executed=%d failed=%d skipped=%d\n",
		result.RunID, result.Executed, result.Failed, result.Skipped)

	for _, ev := range result.Timeline.Events {
		fmt.Printf("  📅 %s  %-18s %s\n", ev.ScheduledDate.Format("2006-01-02"), ev.Name, ev.Status)
	}

	return nil
}
