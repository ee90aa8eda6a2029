package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"SiteRadar/pkg/config"
	"SiteRadar/pkg/monitor"
)

// 独立看护进程：定期探测API服务与数据库健康状况，对外提供 /status
func main() {
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		panic("加载配置失败: " + err.Error())
	}

	logger := newLogger(cfg.App.Env)
	defer logger.Sync()

	logger.Info("启动监控服务", zap.String("app", cfg.App.Name))

	mon := monitor.NewMonitor(logger)
	mon.RegisterComponent("api-service")
	mon.RegisterComponent("engine-service")

	apiPort := cfg.API.Port
	if apiPort == "" {
		apiPort = "8080"
	}
	mon.StartChecking("api-service", httpCheck(fmt.Sprintf("http://localhost:%s/health", apiPort)), 30*time.Second)
	mon.StartChecking("engine-service", httpCheck(fmt.Sprintf("http://localhost:%s/ready", apiPort)), 30*time.Second)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mon.GetAllStatus())
	})

	port := "8081"
	logger.Info("监控服务已就绪", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Fatal("启动HTTP服务器失败", zap.Error(err))
	}
}

// httpCheck 构造基于HTTP探活的检查函数
func httpCheck(url string) monitor.CheckFunc {
	client := &http.Client{Timeout: 5 * time.Second}
	return func() (string, string) {
		resp, err := client.Get(url)
		if err != nil {
			return monitor.StatusDown, err.Error()
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return monitor.StatusDegraded, fmt.Sprintf("HTTP状态码: %d", resp.StatusCode)
		}
		return monitor.StatusHealthy, ""
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("创建日志器失败: " + err.Error())
	}
	return logger
}
