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

package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wslmonitor/wslmonitor/internal/cache"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// Sampler is the slice of the WSL executor the service needs.
// Sampler 是服务所需的 WSL 执行器子集。
type Sampler interface {
	ListProcesses(ctx context.Context, distro string) ([]*wsl.Process, error)
	ProcessExists(ctx context.Context, distro string, pid int) bool
	Signal(ctx context.Context, distro string, pid int, sig wsl.Signal) error
	ParentPID(ctx context.Context, distro string, pid int) (int, error)
}

// Archiver receives samples for long-horizon storage.
// Archiver 接收用于长期存储的采样。
type Archiver interface {
	ArchiveSample(ctx context.Context, distro string, recordedAt time.Time, processes []*Info) error
}

// Service implements process monitoring and management operations.
// Service 实现进程监控与管理操作。
type Service struct {
	sampler  Sampler
	cache    *cache.SampleCache
	repo     *Repository // nil 表示历史持久化关闭 / nil means history persistence is off
	archiver Archiver
	killWait time.Duration
}

// NewService creates a new Service instance. repo may be nil when history
// persistence is disabled.
// NewService 创建一个新的 Service 实例。历史持久化关闭时 repo 可为 nil。
func NewService(sampler Sampler, sampleCache *cache.SampleCache, repo *Repository) *Service {
	return &Service{
		sampler:  sampler,
		cache:    sampleCache,
		repo:     repo,
		killWait: 500 * time.Millisecond,
	}
}

// SetArchiver attaches an optional long-horizon sample archiver.
// SetArchiver 挂接可选的长期采样归档器。
func (s *Service) SetArchiver(a Archiver) {
	s.archiver = a
}

// ==================== 采样 Sampling ====================

// List returns the enriched process table of a distribution. When useCache
// is true a sample within the TTL is reused; otherwise ps runs now.
// List 返回发行版的增强进程表。useCache 为 true 时复用 TTL 内的采样，否则
// 立即执行 ps。
func (s *Service) List(ctx context.Context, distro string, useCache bool, filter *Filter) ([]*Info, error) {
	raw, err := s.sample(ctx, distro, useCache)
	if err != nil {
		return nil, err
	}

	infos := make([]*Info, 0, len(raw))
	for _, p := range raw {
		info := Enrich(p)
		if filter != nil && !filter.Match(info) {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Get returns one enriched process with its parent PID resolved.
// Get 返回单个增强进程，并解析其父 PID。
func (s *Service) Get(ctx context.Context, distro string, pid int) (*Info, error) {
	if pid <= 0 {
		return nil, ErrInvalidPID
	}
	raw, err := s.sample(ctx, distro, true)
	if err != nil {
		return nil, err
	}
	for _, p := range raw {
		if p.PID != pid {
			continue
		}
		info := Enrich(p)
		if ppid, err := s.sampler.ParentPID(ctx, distro, pid); err == nil {
			info.PPID = ppid
		}
		return info, nil
	}
	return nil, ErrProcessNotFound
}

// Statistics aggregates the current sample of a distribution.
// Statistics 聚合发行版的当前采样。
// Computed from the sample that is returned to clients, so listing and
// statistics never disagree within one TTL window.
// 基于返回给客户端的同一份采样计算，保证同一 TTL 窗口内列表与统计一致。
func (s *Service) Statistics(ctx context.Context, distro string) (*Statistics, error) {
	infos, err := s.List(ctx, distro, true, nil)
	if err != nil {
		return nil, err
	}
	return ComputeStatistics(infos), nil
}

// sample returns the raw process table, through the cache when allowed.
func (s *Service) sample(ctx context.Context, distro string, useCache bool) ([]*wsl.Process, error) {
	if useCache {
		if processes, ok := s.cache.GetProcesses(ctx, distro); ok {
			return processes, nil
		}
	}

	processes, err := s.sampler.ListProcesses(ctx, distro)
	if err != nil {
		return nil, err
	}
	s.cache.SetProcesses(ctx, distro, processes)
	return processes, nil
}

// ==================== 终止 Kill ====================

// Kill terminates a process with a verified kill flow: check the target
// exists, send the signal, wait briefly, then re-check.
// Kill 以带校验的流程终止进程：确认目标存在、发送信号、短暂等待、再次
// 确认。
// Protected processes reject SIGKILL with ErrProcessProtected but may
// receive SIGTERM. Every attempt, including rejections, lands in the
// operation log.
// 受保护进程对 SIGKILL 返回 ErrProcessProtected，但允许 SIGTERM。包括拒绝
// 在内的每次尝试都会写入操作日志。
func (s *Service) Kill(ctx context.Context, distro string, pid int, sig wsl.Signal, operator string) (*KillResult, error) {
	if pid <= 0 {
		return nil, ErrInvalidPID
	}
	if sig != wsl.SIGTERM && sig != wsl.SIGKILL {
		return nil, ErrInvalidSignal
	}

	result, err := s.doKill(ctx, distro, pid, sig)
	if err != nil {
		s.logOperation(ctx, distro, pid, sig, operator, &KillResult{Message: err.Error(), Timestamp: time.Now()})
		return nil, err
	}
	s.logOperation(ctx, distro, pid, sig, operator, result)

	if result.Success {
		// 让下一次读取立刻反映进程消失
		s.cache.Invalidate(ctx, distro)
	}
	return result, nil
}

func (s *Service) doKill(ctx context.Context, distro string, pid int, sig wsl.Signal) (*KillResult, error) {
	now := time.Now()

	// 先定位目标，拿到保护标记
	raw, err := s.sample(ctx, distro, false)
	if err != nil {
		return &KillResult{Message: fmt.Sprintf("sample before kill failed: %v", err), Timestamp: now}, nil
	}
	var target *wsl.Process
	for _, p := range raw {
		if p.PID == pid {
			target = p
			break
		}
	}
	if target == nil {
		return &KillResult{Message: fmt.Sprintf("process %d does not exist or already exited", pid), Timestamp: now}, nil
	}
	if IsProtected(target) && sig == wsl.SIGKILL {
		return nil, fmt.Errorf("process %d: %w", pid, ErrProcessProtected)
	}

	logger.InfoF(ctx, "[Process] killing pid=%d distro=%s signal=%s", pid, distro, sig)

	if err := s.sampler.Signal(ctx, distro, pid, sig); err != nil {
		switch {
		case errors.Is(err, wsl.ErrNoSuchProcess):
			return &KillResult{Message: fmt.Sprintf("process %d exited while being killed", pid), Timestamp: now}, nil
		case errors.Is(err, wsl.ErrNotPermitted):
			return &KillResult{Message: fmt.Sprintf("no permission to kill process %d, it may belong to the system or another user", pid), Timestamp: now}, nil
		default:
			return &KillResult{Message: fmt.Sprintf("kill process %d failed: %v", pid, err), Timestamp: now}, nil
		}
	}

	// 给进程一点退出时间再复核
	time.Sleep(s.killWait)

	if s.sampler.ProcessExists(ctx, distro, pid) {
		return &KillResult{
			Message:   fmt.Sprintf("signal sent but process %d is still running, consider SIGKILL", pid),
			Timestamp: now,
		}, nil
	}

	return &KillResult{
		Success:      true,
		Message:      fmt.Sprintf("process %d terminated with %s", pid, sig),
		AffectedPIDs: []int{pid},
		Timestamp:    now,
	}, nil
}

// KillBatch terminates several processes with the same verified flow as
// Kill. Each pid gets its own outcome; one failure does not stop the rest.
// KillBatch 以与 Kill 相同的校验流程终止多个进程。每个 pid 有独立结果，
// 单个失败不会中断其余进程。
func (s *Service) KillBatch(ctx context.Context, distro string, pids []int, sig wsl.Signal, operator string) (*BatchKillResult, error) {
	if len(pids) == 0 {
		return nil, ErrInvalidPID
	}
	if sig != wsl.SIGTERM && sig != wsl.SIGKILL {
		return nil, ErrInvalidSignal
	}

	batch := &BatchKillResult{
		Details:   make([]*KillDetail, 0, len(pids)),
		Timestamp: time.Now(),
	}

	succeeded := 0
	for _, pid := range pids {
		if pid <= 0 {
			batch.Details = append(batch.Details, &KillDetail{
				PID:     pid,
				Message: fmt.Sprintf("invalid pid %d", pid),
			})
			continue
		}

		result, err := s.doKill(ctx, distro, pid, sig)
		if err != nil {
			// 受保护进程的拒绝同样留痕，并记为失败明细
			rejection := &KillResult{Message: err.Error(), Timestamp: time.Now()}
			s.logOperation(ctx, distro, pid, sig, operator, rejection)
			batch.Details = append(batch.Details, &KillDetail{PID: pid, Message: err.Error()})
			continue
		}
		s.logOperation(ctx, distro, pid, sig, operator, result)

		batch.Details = append(batch.Details, &KillDetail{
			PID:     pid,
			Success: result.Success,
			Message: result.Message,
		})
		if result.Success {
			batch.AffectedPIDs = append(batch.AffectedPIDs, pid)
			succeeded++
		}
	}

	batch.Success = succeeded == len(pids)
	batch.Message = fmt.Sprintf("terminated %d/%d processes", succeeded, len(pids))

	if succeeded > 0 {
		s.cache.Invalidate(ctx, distro)
	}
	return batch, nil
}

// logOperation writes the audit row; failures are logged and swallowed.
func (s *Service) logOperation(ctx context.Context, distro string, pid int, sig wsl.Signal, operator string, result *KillResult) {
	if s.repo == nil {
		return
	}
	op := &OperationLog{
		RequestID: uuid.NewString(),
		Distro:    distro,
		Operation: "kill",
		PID:       pid,
		Signal:    string(sig),
		Success:   result.Success,
		Message:   result.Message,
		Operator:  operator,
	}
	if err := s.repo.SaveOperation(ctx, op); err != nil {
		logger.ErrorF(ctx, "[Process] save operation log failed: %v", err)
	}
}

// ==================== 历史 History ====================

// PersistSnapshot samples a distribution fresh and writes both the per
// process records and the aggregate snapshot. Called from the background
// snapshot task.
// PersistSnapshot 对发行版执行一次新采样，同时写入逐进程记录与聚合快照。
// 由后台快照任务调用。
func (s *Service) PersistSnapshot(ctx context.Context, distro string) error {
	if s.repo == nil {
		return ErrHistoryDisabled
	}

	infos, err := s.List(ctx, distro, false, nil)
	if err != nil {
		return err
	}
	now := time.Now()

	records := make([]*ProcessRecord, 0, len(infos))
	for _, info := range infos {
		records = append(records, &ProcessRecord{
			Distro:        distro,
			PID:           info.PID,
			User:          info.User,
			Name:          info.Name,
			Command:       info.Command,
			CPUPercent:    info.CPUPercent,
			MemoryPercent: info.MemoryPercent,
			MemoryRSS:     info.MemoryRSS,
			Status:        info.Status,
			ProcessType:   info.ProcessType,
			RecordedAt:    now,
		})
	}
	if err := s.repo.SaveRecords(ctx, records); err != nil {
		return fmt.Errorf("save process records: %w", err)
	}

	snapshot := ComputeStatistics(infos).ToSnapshot(distro, now)
	if err := s.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save stat snapshot: %w", err)
	}

	// 归档失败不影响本地持久化
	if s.archiver != nil {
		if err := s.archiver.ArchiveSample(ctx, distro, now, infos); err != nil {
			logger.WarnF(ctx, "[Process] archive sample of %s failed: %v", distro, err)
		}
	}
	return nil
}

// Cleanup removes history older than the retention window.
// Cleanup 清理超出保留窗口的历史数据。
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if s.repo == nil {
		return 0, ErrHistoryDisabled
	}
	cutoff := time.Now().Add(-retention)
	deleted, err := s.repo.CleanupBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.InfoF(ctx, "[Process] cleaned up %d history rows older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

// History returns aggregate snapshots of a distribution since the given
// duration ago.
// History 返回发行版自给定时长之前以来的聚合快照。
func (s *Service) History(ctx context.Context, distro string, window time.Duration, limit int) ([]*StatSnapshot, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.ListSnapshots(ctx, distro, time.Now().Add(-window), limit)
}

// ProcessHistory returns persisted observations of one process.
// ProcessHistory 返回某个进程的持久化观测记录。
func (s *Service) ProcessHistory(ctx context.Context, distro string, pid int, window time.Duration, limit int) ([]*ProcessRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.ListRecords(ctx, distro, pid, time.Now().Add(-window), limit)
}

// Operations returns recent operation log entries.
// Operations 返回最近的操作日志。
func (s *Service) Operations(ctx context.Context, distro string, limit int) ([]*OperationLog, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.ListOperations(ctx, distro, limit)
}

// LatestSnapshot exposes the newest aggregate snapshot for dashboards.
// LatestSnapshot 为仪表盘暴露最新的聚合快照。
func (s *Service) LatestSnapshot(ctx context.Context, distro string) (*StatSnapshot, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.LatestSnapshot(ctx, distro)
}
