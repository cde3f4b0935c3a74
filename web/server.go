package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"arg-stats/config"
	"arg-stats/fotmob"
	"arg-stats/services"
)

type Server struct {
	config      *config.Config
	db          *sql.DB
	wsHub       *Hub
	rankings    *services.RankingService
	referees    *services.RefereeService
	predictions *services.PredictionService
	teams       *services.TeamService
	players     *services.PlayerService
	store       *services.MatchStore
	ingest      *services.IngestService
	fotmob      *fotmob.Client
	cache       *services.QueryCache
	log         *logrus.Logger
	httpServer  *http.Server
	upgrader    websocket.Upgrader
}

// Services 服务器依赖的业务服务集合
type Services struct {
	Rankings    *services.RankingService
	Referees    *services.RefereeService
	Predictions *services.PredictionService
	Teams       *services.TeamService
	Players     *services.PlayerService
	Store       *services.MatchStore
	Ingest      *services.IngestService
	Fotmob      *fotmob.Client
}

func NewServer(cfg *config.Config, db *sql.DB, hub *Hub, svcs Services, log *logrus.Logger) *Server {
	return &Server{
		config:      cfg,
		db:          db,
		wsHub:       hub,
		rankings:    svcs.Rankings,
		referees:    svcs.Referees,
		predictions: svcs.Predictions,
		teams:       svcs.Teams,
		players:     svcs.Players,
		store:       svcs.Store,
		ingest:      svcs.Ingest,
		fotmob:      svcs.Fotmob,
		cache:       services.NewQueryCache(time.Minute),
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源(生产环境需要限制)
			},
		},
	}
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	// API路由
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/rankings/teams", s.handleTeamRankings).Methods("GET")
	api.HandleFunc("/rankings/players", s.handlePlayerRankings).Methods("GET")
	api.HandleFunc("/rankings/referees", s.handleRefereeRankings).Methods("GET")
	api.HandleFunc("/teams", s.handleTeams).Methods("GET")
	api.HandleFunc("/teams/{team_id}/summary", s.handleTeamSummary).Methods("GET")
	api.HandleFunc("/players/search", s.handlePlayerSearch).Methods("GET")
	api.HandleFunc("/players/{player_id}/summary", s.handlePlayerSummary).Methods("GET")
	api.HandleFunc("/matches/{match_id}", s.handleMatch).Methods("GET")
	api.HandleFunc("/matches/{match_id}/prediction", s.handleMatchPrediction).Methods("GET")
	api.HandleFunc("/ingest/{match_id}", s.handleIngestMatch).Methods("POST")

	// WebSocket路由
	router.HandleFunc("/ws", s.handleWebSocket)

	// CORS配置
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Errorf("Server shutdown error: %v", err)
	}
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.db.Ping(); err != nil {
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"time":   time.Now().Unix(),
	})
}

// handleWebSocket WebSocket连接处理
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:      s.wsHub,
		conn:     conn,
		send:     make(chan []byte, 256),
		matchIDs: make(map[string]bool),
	}

	client.hub.register <- client

	// 发送欢迎消息
	welcomeMsg := &WSMessage{
		Type:      "connected",
		Timestamp: time.Now().Unix(),
		Data: map[string]interface{}{
			"message": "Connected to stats WebSocket",
		},
	}
	welcomeData, _ := json.Marshal(welcomeMsg)
	client.send <- welcomeData

	go client.writePump()
	go client.readPump()
}

// writeJSON 输出JSON响应
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError 输出JSON错误响应
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
