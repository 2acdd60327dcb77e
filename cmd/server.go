/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peancharoen/lcbp3-sub002/internal/api"
	"github.com/peancharoen/lcbp3-sub002/internal/config"
	"github.com/peancharoen/lcbp3-sub002/internal/container"
	"github.com/peancharoen/lcbp3-sub002/internal/metrics"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the document routing and numbering API server.
The server listens on the configured host and port and provides REST API
interfaces for revision workflow, document numbering and routing templates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// 3. 初始化容器
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 4. 链路追踪
		if cfg.Tracing.Enabled {
			if err := api.InitTracing(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint); err != nil {
				return fmt.Errorf("failed to initialize tracing: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = api.ShutdownTracing(shutdownCtx)
			}()
		}

		// 5. 指标采集循环
		collector := metrics.NewCollector(ctr.DB(), 30*time.Second)
		collector.Start()
		defer collector.Stop()

		// 6. 配置热更新: 日志级别与限流参数不重启生效
		var limiter *rate.Limiter
		if cfg.RateLimit.RPS > 0 {
			limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				if level, err := logrus.ParseLevel(newCfg.Log.Level); err == nil {
					logger.SetLevel(level)
				}
				if limiter != nil && newCfg.RateLimit.RPS > 0 {
					limiter.SetLimit(rate.Limit(newCfg.RateLimit.RPS))
					limiter.SetBurst(newCfg.RateLimit.Burst)
				}
				logger.WithFields(logrus.Fields{
					"log_level": newCfg.Log.Level,
					"rate_rps":  newCfg.RateLimit.RPS,
				}).Info("configuration reloaded")
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config hot-reload disabled")
			} else {
				defer watcher.Stop()
			}
		}

		// 7. 初始化控制器并设置路由
		revisionController := api.NewRevisionController(ctr.RevisionService(), ctr.WorkflowService())
		numberingController := api.NewNumberingController(ctr.NumberingService(), ctr.FormatService(), repository.NewNumberAuditRepository(ctr.DB()))
		templateController := api.NewTemplateController(ctr.TemplateService())

		router := api.SetupRoutes(api.RouterDeps{
			DB:          ctr.DB(),
			Redis:       ctr.Redis(),
			Hub:         ctr.Hub(),
			Revisions:   revisionController,
			Numbering:   numberingController,
			Templates:   templateController,
			CORSOrigins: cfg.CORS.AllowedOrigins,
			RateLimiter: limiter,
			Tracing:     cfg.Tracing.Enabled,
		})

		// 自定义 NoRoute 处理器,返回 JSON 格式的 404
		router.NoRoute(func(c *gin.Context) {
			api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
		})

		// 8. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器(在 goroutine 中)
		go func() {
			logger.Infof("server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server...")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Fatalf("server forced to shutdown: %v", err)
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}
