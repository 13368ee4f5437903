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

// Package dashboard aggregates system state for the overview page.
// dashboard 包为概览页聚合系统状态。
package dashboard

import (
	"time"

	"github.com/wslmonitor/wslmonitor/internal/apps/process"
)

// OverviewStats represents the dashboard overview statistics.
// OverviewStats 表示仪表盘概览统计数据。
type OverviewStats struct {
	// WSL subsystem / WSL 子系统
	WSLAvailable  bool   `json:"wsl_available"`
	TotalDistros  int    `json:"total_distros"`
	RunningCount  int    `json:"running_count"`
	DefaultDistro string `json:"default_distro"`

	// Streaming clients / 流式客户端
	ActiveConnections int `json:"active_connections"`

	// History / 历史记录
	HistoryEnabled bool `json:"history_enabled"`
}

// DistroSummary combines a distribution with its latest snapshot.
// DistroSummary 将发行版与其最新快照结合。
type DistroSummary struct {
	Name       string     `json:"name"`
	State      string     `json:"state"`
	Version    string     `json:"version"`
	IsDefault  bool       `json:"is_default"`
	Watchers   int        `json:"watchers"`
	Total      int        `json:"total"`
	Running    int        `json:"running"`
	Sleeping   int        `json:"sleeping"`
	TotalCPU   float64    `json:"total_cpu"`
	TotalRSS   int64      `json:"total_rss"`
	SnapshotAt *time.Time `json:"snapshot_at,omitempty"`
}

// OverviewData represents the complete dashboard overview data.
// OverviewData 表示完整的仪表盘概览数据。
type OverviewData struct {
	Stats            *OverviewStats          `json:"stats"`
	DistroSummaries  []*DistroSummary        `json:"distro_summaries"`
	RecentOperations []*process.OperationLog `json:"recent_operations"`
}

// DashboardDataResponse 仪表盘数据响应
type DashboardDataResponse struct {
	ErrorMsg string      `json:"error_msg"`
	Data     interface{} `json:"data"`
}
