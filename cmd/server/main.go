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

// Package main is the entry point for the WSL process monitor backend.
// main 包是 WSL 进程监控后端的入口点。
//
// The server samples process tables from WSL distributions via wsl.exe,
// serves them over REST and WebSocket, and optionally persists a rolling
// history window.
// 服务通过 wsl.exe 采样 WSL 发行版的进程表，经 REST 与 WebSocket 提供，
// 并可选地持久化滚动历史窗口。
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/wslmonitor/wslmonitor/internal/db/migrator"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/router"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "wslmonitor",
	Short: "WSL process monitor backend / WSL 进程监控后端",
	Long: `wslmonitor serves a process monitoring dashboard for WSL distributions.
wslmonitor 为 WSL 发行版提供进程监控仪表盘服务。

It samples ps output through wsl.exe and exposes:
它通过 wsl.exe 采样 ps 输出并提供：
- REST API for processes, statistics and history / 进程、统计与历史的 REST API
- WebSocket streaming with change detection / 带变更检测的 WebSocket 流
- Verified process termination / 经过校验的进程终止`,
	RunE: runServer,
}

// serveCmd 显式的 serve 子命令（与直接运行根命令等价）
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server / 启动 HTTP API 服务",
	RunE:  runServer,
}

// migrateCmd 仅执行数据库迁移后退出
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migration and exit / 执行数据库迁移后退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		defer logger.Sync()
		return migrator.Migrate()
	},
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wslmonitor\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

// runServer 初始化日志与数据库模式，然后启动 HTTP 服务
// runServer initializes logging and the database schema, then serves HTTP.
func runServer(cmd *cobra.Command, args []string) error {
	logger.Init()
	defer logger.Sync()

	if err := migrator.Migrate(); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	router.Serve()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
