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

package dashboard

import (
	"context"
	"errors"

	"github.com/wslmonitor/wslmonitor/internal/apps/distro"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/apps/ws"
	"github.com/wslmonitor/wslmonitor/internal/logger"
)

// OverviewService provides dashboard overview statistics.
// OverviewService 提供仪表盘概览统计。
type OverviewService struct {
	distros   *distro.Service
	processes *process.Service
	hub       *ws.Hub
}

// NewOverviewService creates a new dashboard overview service.
// NewOverviewService 创建新的仪表盘概览服务。
func NewOverviewService(distros *distro.Service, processes *process.Service, hub *ws.Hub) *OverviewService {
	return &OverviewService{
		distros:   distros,
		processes: processes,
		hub:       hub,
	}
}

// GetOverviewStats returns dashboard overview statistics.
// GetOverviewStats 返回仪表盘概览统计数据。
func (s *OverviewService) GetOverviewStats(ctx context.Context) (*OverviewStats, error) {
	status, err := s.distros.SystemStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &OverviewStats{
		WSLAvailable:  status.WSLAvailable,
		TotalDistros:  status.DistroCount,
		RunningCount:  status.RunningCount,
		DefaultDistro: status.DefaultDistro,
	}
	if s.hub != nil {
		stats.ActiveConnections = s.hub.TotalClients()
	}

	// 探测历史功能是否启用（仓储未配置时返回 ErrHistoryDisabled）
	_, histErr := s.processes.Operations(ctx, "", 1)
	stats.HistoryEnabled = !errors.Is(histErr, process.ErrHistoryDisabled)

	return stats, nil
}

// GetDistroSummaries returns per-distribution summaries for the dashboard.
// 快照缺失（历史未启用或尚未采样）时仅返回发行版基础信息。
// GetDistroSummaries 返回仪表盘的各发行版摘要。
func (s *OverviewService) GetDistroSummaries(ctx context.Context) ([]*DistroSummary, error) {
	status, err := s.distros.SystemStatus(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*DistroSummary, 0, len(status.Distros))
	for _, d := range status.Distros {
		summary := &DistroSummary{
			Name:      d.Name,
			State:     d.State,
			Version:   d.Version,
			IsDefault: d.IsDefault,
		}
		if s.hub != nil {
			summary.Watchers = s.hub.ClientCount(d.Name)
		}

		snapshot, err := s.processes.LatestSnapshot(ctx, d.Name)
		if err != nil {
			if !errors.Is(err, process.ErrHistoryDisabled) {
				logger.WarnF(ctx, "[Dashboard] 读取快照失败: %s, %v", d.Name, err)
			}
		} else if snapshot != nil {
			summary.Total = snapshot.Total
			summary.Running = snapshot.Running
			summary.Sleeping = snapshot.Sleeping
			summary.TotalCPU = snapshot.TotalCPU
			summary.TotalRSS = snapshot.TotalMemory
			recordedAt := snapshot.RecordedAt
			summary.SnapshotAt = &recordedAt
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetRecentOperations returns the latest process management actions.
// GetRecentOperations 返回最近的进程管理操作。
func (s *OverviewService) GetRecentOperations(ctx context.Context, limit int) ([]*process.OperationLog, error) {
	if limit <= 0 {
		limit = 10
	}

	operations, err := s.processes.Operations(ctx, "", limit)
	if err != nil {
		if errors.Is(err, process.ErrHistoryDisabled) {
			return []*process.OperationLog{}, nil
		}
		return nil, err
	}
	return operations, nil
}

// GetOverviewData returns the complete dashboard overview data.
// GetOverviewData 返回完整的仪表盘概览数据。
func (s *OverviewService) GetOverviewData(ctx context.Context) (*OverviewData, error) {
	stats, err := s.GetOverviewStats(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.GetDistroSummaries(ctx)
	if err != nil {
		return nil, err
	}

	operations, err := s.GetRecentOperations(ctx, 10)
	if err != nil {
		return nil, err
	}

	return &OverviewData{
		Stats:            stats,
		DistroSummaries:  summaries,
		RecentOperations: operations,
	}, nil
}
