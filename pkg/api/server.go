package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
	logger *zap.Logger
}

// NewServer 创建新的API服务器
func NewServer(port string, logger *zap.Logger) *Server {
	router := gin.Default()

	// 设置中间件
	router.Use(gin.Recovery())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	return &Server{
		router: router,
		srv:    srv,
		logger: logger,
	}
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(handlers *Handlers) {
	// 健康检查
	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck)

	// API v1 路由组
	v1 := s.router.Group("/api/v1")
	{
		// 移动事件上报
		v1.POST("/events", handlers.IngestEvent)

		// 规则管理
		v1.POST("/rules", handlers.UpsertRule)
		v1.GET("/rules", handlers.ListRules)

		// 告警分诊与生命周期
		v1.GET("/alerts", handlers.ListPriorityAlerts)
		v1.GET("/alerts/history", handlers.AlertHistory)
		v1.GET("/alerts/:id", handlers.GetAlert)
		v1.PUT("/alerts/:id/status", handlers.TransitionAlert)

		// 移动历史（时序库读路径）
		v1.GET("/assets/:id/movements", handlers.AssetMovements)

		// 区域管理
		v1.GET("/zones", handlers.ListZones)
		v1.GET("/zones/:id", handlers.GetZone)
		v1.POST("/zones", handlers.UpsertZone)

		// 引擎与分析统计
		v1.GET("/stats", handlers.GetStats)
		v1.GET("/stats/alerts", handlers.AlertStats)
		v1.GET("/stats/zones", handlers.ZoneActivity)
	}
}

// Start 启动服务器
func (s *Server) Start() {
	// 在goroutine中启动服务器
	go func() {
		s.logger.Info("API服务器启动", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.logger.Info("正在关闭服务器...")

	// 设置超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Fatal("服务器关闭失败", zap.Error(err))
	}

	s.logger.Info("服务器已关闭")
}
