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

// Package tasks 提供历史快照采集与清理的后台任务
// Package tasks provides the background jobs that capture history snapshots
// and prune expired rows.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/wslmonitor/wslmonitor/internal/apps/distro"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/logger"
)

// 任务类型
const (
	TypeSnapshotCapture = "history:snapshot"
	TypeHistoryCleanup  = "history:cleanup"
)

// Jobs bundles the job implementations shared by both runners.
// Jobs 汇集两种运行器共用的任务实现。
type Jobs struct {
	processes *process.Service
	distros   *distro.Service
}

// NewJobs creates the job set.
// NewJobs 创建任务集合。
func NewJobs(processes *process.Service, distros *distro.Service) *Jobs {
	return &Jobs{processes: processes, distros: distros}
}

// CaptureSnapshots samples every running distribution and persists the
// result. A failing distribution is logged and skipped so one stopped
// distro cannot starve the others.
// CaptureSnapshots 采样所有运行中的发行版并持久化结果。失败的发行版记录
// 日志后跳过，避免单个异常发行版影响其余发行版。
func (j *Jobs) CaptureSnapshots(ctx context.Context) error {
	dists, err := j.distros.List(ctx)
	if err != nil {
		if errors.Is(err, distro.ErrWSLUnavailable) {
			logger.DebugF(ctx, "[Tasks] WSL 不可用，跳过快照采集")
			return nil
		}
		return err
	}

	for _, d := range dists {
		if !d.IsRunning() {
			continue
		}
		if err := j.processes.PersistSnapshot(ctx, d.Name); err != nil {
			if errors.Is(err, process.ErrHistoryDisabled) {
				return nil
			}
			logger.WarnF(ctx, "[Tasks] 采集快照失败: %s, %v", d.Name, err)
		}
	}
	return nil
}

// CleanupHistory removes history rows older than the retention window.
// CleanupHistory 删除超出保留窗口的历史记录。
func (j *Jobs) CleanupHistory(ctx context.Context) error {
	historyConfig := config.GetHistoryConfig()
	retentionHours := historyConfig.RetentionHours
	if retentionHours <= 0 {
		retentionHours = 24
	}

	_, err := j.processes.Cleanup(ctx, time.Duration(retentionHours)*time.Hour)
	if errors.Is(err, process.ErrHistoryDisabled) {
		return nil
	}
	return err
}

// snapshotInterval 快照采集间隔
func snapshotInterval() time.Duration {
	seconds := config.GetHistoryConfig().SnapshotIntervalSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

// cleanupInterval 清理任务间隔
func cleanupInterval() time.Duration {
	minutes := config.GetHistoryConfig().CleanupIntervalMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}
