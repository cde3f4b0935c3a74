package main

import (
	"os"
	"os/signal"
	"syscall"

	"arg-stats/config"
	"arg-stats/database"
	"arg-stats/fotmob"
	"arg-stats/logger"
	"arg-stats/services"
	"arg-stats/web"
)

func main() {
	// 加载配置
	cfg := config.Load()

	log := logger.New(cfg.LogLevel)
	log.Info("Starting Liga Profesional stats service...")

	// 连接数据库
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 运行数据库迁移
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Info("Database connected and migrated")

	// 上游数据客户端
	client := fotmob.NewClientWithConfig(fotmob.Config{
		BaseURL:      cfg.FotMobBaseURL,
		RequestDelay: cfg.FetchDelay,
	})

	// 业务服务
	store := services.NewMatchStore(db)
	ingest := services.NewIngestService(store, log)
	rankings := services.NewRankingService(db, store, log)
	referees := services.NewRefereeService(db, log)
	predictions := services.NewPredictionService(rankings, referees, cfg.LeagueSize, cfg.FallbackRank, log)
	teams := services.NewTeamService(rankings, store, log)
	players := services.NewPlayerService(db, log)

	// WebSocket Hub
	wsHub := web.NewHub()
	go wsHub.Run()

	// 定时更新调度器
	scheduler := services.NewUpdateScheduler(store, ingest, client, cfg.UpdateInterval, cfg.FetchDelay, log)
	scheduler.SetBroadcaster(wsHub)
	go scheduler.Start()

	log.Infof("Update scheduler started, interval: %v", cfg.UpdateInterval)

	// Web服务器
	server := web.NewServer(cfg, db, wsHub, web.Services{
		Rankings:    rankings,
		Referees:    referees,
		Predictions: predictions,
		Teams:       teams,
		Players:     players,
		Store:       store,
		Ingest:      ingest,
		Fotmob:      client,
	}, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Web server error: %v", err)
		}
	}()

	log.Infof("Web server started on port %s", cfg.Port)

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")
	scheduler.Stop()
	server.Stop()
	log.Info("Service stopped")
}
