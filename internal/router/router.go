/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package router 提供 HTTP 路由配置
// Package router provides HTTP routing configuration
package router

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/wslmonitor/wslmonitor/docs"
	"github.com/wslmonitor/wslmonitor/internal/apps/auth"
	"github.com/wslmonitor/wslmonitor/internal/apps/dashboard"
	"github.com/wslmonitor/wslmonitor/internal/apps/distro"
	"github.com/wslmonitor/wslmonitor/internal/apps/health"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/apps/ws"
	"github.com/wslmonitor/wslmonitor/internal/archive"
	"github.com/wslmonitor/wslmonitor/internal/cache"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/db"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/otel_trace"
	"github.com/wslmonitor/wslmonitor/internal/session"
	"github.com/wslmonitor/wslmonitor/internal/tasks"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func Serve() {
	ctx := context.Background()

	// Initialize OpenTelemetry tracing (based on config)
	// 初始化 OpenTelemetry 追踪（根据配置）
	otel_trace.Init()
	defer otel_trace.Shutdown(ctx)

	// 运行模式
	// Set run mode
	if config.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库（根据配置自动选择 SQLite、MySQL 或 PostgreSQL）
	// Initialize database (auto-select SQLite, MySQL or PostgreSQL based on config)
	if !db.IsDatabaseInitialized() {
		if err := db.InitDatabase(); err != nil {
			log.Fatalf("[API] 初始化数据库失败: %v\n", err)
		}
	}

	// 初始化路由
	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())

	// 初始化会话存储（根据配置自动选择内存或 Redis）
	// Initialize session store (auto-select memory or Redis based on config)
	if err := session.InitSessionStore(); err != nil {
		log.Fatalf("[API] 初始化会话存储失败: %v\n", err)
	}
	r.Use(sessions.Sessions(config.Config.App.SessionCookieName, session.GinStore))

	// 补充中间件
	// Add middleware
	r.Use(otelgin.Middleware(config.Config.App.AppName), loggerMiddleware())

	// ==================== 组件装配 Component wiring ====================

	wslConfig := config.GetWSLConfig()
	executor := wsl.NewExecutor(wslConfig.Binary, time.Duration(wslConfig.CommandTimeoutSeconds)*time.Second)

	// 采样缓存：Redis 启用时作为二级缓存共享给多实例
	// Sample cache: Redis, when enabled, acts as a shared second level.
	sampleCache := cache.NewSampleCache(
		time.Duration(wslConfig.SampleCacheTTLSeconds)*time.Second,
		session.RedisClient(),
	)

	// 历史仓储：历史功能关闭或数据库未启用时为 nil
	// History repository: nil when history or the database is disabled.
	var processRepo *process.Repository
	if config.GetHistoryConfig().Enabled && db.GetGlobalDB() != nil {
		processRepo = process.NewRepository(db.GetGlobalDB())
	} else {
		log.Println("[API] 历史持久化未启用 / history persistence is disabled")
	}

	processService := process.NewService(executor, sampleCache, processRepo)
	distroService := distro.NewService(executor)

	// ClickHouse 长期归档（可选）
	// Optional ClickHouse long-horizon archive.
	if config.IsClickHouseEnabled() {
		archiver, err := archive.NewClickHouseArchiver(ctx, &config.Config.ClickHouse)
		if err != nil {
			// 归档是增强能力，失败不阻塞启动
			logger.ErrorF(ctx, "[API] ClickHouse 归档初始化失败: %v", err)
		} else {
			processService.SetArchiver(archiver)
			defer archiver.Close()
		}
	}

	hub := ws.NewHub()

	processHandler := process.NewHandler(processService)
	distroHandler := distro.NewHandler(distroService)
	wsHandler := ws.NewHandler(hub, processService)
	overviewHandler := dashboard.NewOverviewHandler(
		dashboard.NewOverviewService(distroService, processService, hub),
	)

	// 后台任务：快照采集与历史清理
	// Background jobs: snapshot capture and history cleanup.
	if config.GetHistoryConfig().Enabled && processRepo != nil {
		runner := tasks.NewRunner(tasks.NewJobs(processService, distroService))
		if err := runner.Start(); err != nil {
			log.Fatalf("[API] 启动后台任务失败: %v\n", err)
		}
		defer runner.Stop()
	}

	// ==================== 路由注册 Route registration ====================

	apiGroup := r.Group(config.Config.App.APIPrefix)
	{
		if config.Config.App.Env == "development" {
			// Swagger
			apiGroup.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		}

		// API V1
		apiV1Router := apiGroup.Group("/v1")
		{
			// Health
			apiV1Router.GET("/health", health.Health)

			// Auth
			apiV1Router.POST("/auth/login", auth.Login)
			apiV1Router.POST("/auth/logout", auth.LoginRequired(), auth.Logout)
			apiV1Router.GET("/auth/user-info", auth.LoginRequired(), auth.GetUserInfo)

			// Distro 发行版
			distroRouter := apiV1Router.Group("/distros")
			distroRouter.Use(auth.LoginRequired())
			{
				distroRouter.GET("", distroHandler.ListDistros)
			}

			// System 系统状态与当前发行版
			systemRouter := apiV1Router.Group("/system")
			systemRouter.Use(auth.LoginRequired())
			{
				systemRouter.GET("/status", distroHandler.GetSystemStatus)
				systemRouter.POST("/distro/:name/set-current", distroHandler.SetCurrentDistro)
			}

			// Process 进程监控与管理
			processRouter := apiV1Router.Group("/processes")
			processRouter.Use(auth.LoginRequired())
			{
				processRouter.GET("/:distro", processHandler.ListProcesses)
				processRouter.POST("/:distro/kill", processHandler.KillProcesses)
				processRouter.GET("/:distro/statistics", processHandler.GetStatistics)
				processRouter.GET("/:distro/history", processHandler.GetHistory)
				processRouter.GET("/:distro/:pid", processHandler.GetProcess)
				processRouter.GET("/:distro/:pid/history", processHandler.GetProcessHistory)
				processRouter.POST("/:distro/:pid/kill", processHandler.KillProcess)
			}

			// Operations 操作日志
			apiV1Router.GET("/operations", auth.LoginRequired(), processHandler.ListOperations)

			// Dashboard Overview 仪表盘概览
			overviewRouter := apiV1Router.Group("/dashboard/overview")
			overviewRouter.Use(auth.LoginRequired())
			{
				overviewRouter.GET("", overviewHandler.GetOverviewData)
				overviewRouter.GET("/stats", overviewHandler.GetOverviewStats)
				overviewRouter.GET("/distros", overviewHandler.GetDistroSummaries)
				overviewRouter.GET("/operations", overviewHandler.GetRecentOperations)
			}

			// WebSocket 实时进程流
			apiV1Router.GET("/ws/:distro", auth.LoginRequired(), wsHandler.Serve)
		}
	}

	// Serve HTTP API
	// 启动 HTTP API 服务
	log.Printf("[API] HTTP 服务器启动于 %s / HTTP server starting on %s\n", config.Config.App.Addr, config.Config.App.Addr)
	if err := r.Run(config.Config.App.Addr); err != nil {
		log.Fatalf("[API] serve api failed: %v\n", err)
	}
}

// loggerMiddleware 记录每个请求的方法、路径、状态码与耗时
// loggerMiddleware records method, path, status and latency per request.
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		if status >= 500 {
			logger.ErrorF(c.Request.Context(), "[API] %s %s -> %d (%s)",
				c.Request.Method, c.Request.URL.Path, status, latency)
			return
		}
		logger.InfoF(c.Request.Context(), "[API] %s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, status, latency)
	}
}
