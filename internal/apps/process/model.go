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

// Package process provides process monitoring and management for WSL
// distributions.
// process 包提供 WSL 发行版的进程监控与管理功能。
package process

import (
	"strings"
	"time"

	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// ==================== 枚举 Enums ====================

// Type classifies a process by what it appears to be.
// Type 按进程的表现形式对其分类。
type Type string

const (
	// TypeSystem 内核或 init 体系的进程
	TypeSystem Type = "system"
	// TypeDaemon 后台守护进程
	TypeDaemon Type = "daemon"
	// TypeShell 交互式 shell
	TypeShell Type = "shell"
	// TypeApplication 常见运行时承载的应用
	TypeApplication Type = "application"
	// TypeUser 其他用户进程
	TypeUser Type = "user"
)

// ==================== 保护规则 Protection Rules ====================

// systemUsers are accounts whose processes are never killable through the
// API.
// systemUsers 是其进程不可通过 API 终止的系统账号。
var systemUsers = map[string]bool{
	"root": true, "daemon": true, "bin": true, "sys": true, "sync": true,
	"games": true, "man": true, "lp": true, "mail": true, "news": true,
	"uucp": true, "proxy": true, "www-data": true, "backup": true,
	"list": true, "irc": true, "gnats": true, "nobody": true,
	"systemd+": true,
}

// criticalNameParts are substrings marking kernel-side or init processes.
// criticalNameParts 是标记内核侧或 init 进程的名称片段。
var criticalNameParts = []string{
	"systemd", "kthreadd", "ksoftirqd", "migration", "rcu_", "watchdog",
	"init", "kernel",
}

// protectedPIDThreshold: PIDs below this are treated as system processes.
// protectedPIDThreshold：低于该值的 PID 一律视为系统进程。
const protectedPIDThreshold = 100

// IsProtected reports whether a process must not be killed through the API.
// IsProtected 报告某进程是否不可通过 API 终止。
func IsProtected(p *wsl.Process) bool {
	if p.PID < protectedPIDThreshold {
		return true
	}
	if systemUsers[strings.ToLower(p.User)] {
		return true
	}
	name := strings.ToLower(p.Name)
	for _, part := range criticalNameParts {
		if strings.Contains(name, part) {
			return true
		}
	}
	return false
}

// Classify assigns a coarse process type based on the process name.
// Classify 基于进程名赋予粗粒度的进程类型。
func Classify(p *wsl.Process) Type {
	name := strings.ToLower(p.Name)
	switch {
	case containsAny(name, "systemd", "kernel", "kthread", "init"):
		return TypeSystem
	case containsAny(name, "daemon", "service", "sshd", "cron"):
		return TypeDaemon
	case containsAny(name, "bash", "sh", "zsh", "fish"):
		return TypeShell
	case containsAny(name, "python", "node", "java"):
		return TypeApplication
	default:
		return TypeUser
	}
}

func containsAny(s string, parts ...string) bool {
	for _, part := range parts {
		if strings.Contains(s, part) {
			return true
		}
	}
	return false
}

// ==================== API 模型 API Models ====================

// Info is an enriched process sample exposed by the API.
// Info 是 API 暴露的增强进程样本。
type Info struct {
	wsl.Process
	PPID        int  `json:"ppid"`
	IsProtected bool `json:"is_protected"`
	ProcessType Type `json:"process_type"`
}

// Enrich wraps a raw sample with protection and classification flags.
// Enrich 为原始样本附加保护标记与类型分类。
func Enrich(p *wsl.Process) *Info {
	return &Info{
		Process:     *p,
		IsProtected: IsProtected(p),
		ProcessType: Classify(p),
	}
}

// Statistics aggregates one sample of a distribution's process table.
// Statistics 聚合一个发行版进程表的单次采样。
type Statistics struct {
	Total       int     `json:"total"`
	Running     int     `json:"running"`
	Sleeping    int     `json:"sleeping"`
	Stopped     int     `json:"stopped"`
	Zombie      int     `json:"zombie"`
	TotalCPU    float64 `json:"total_cpu"`
	TotalMemory int64   `json:"total_memory"` // RSS 合计，KB / summed RSS in KB
}

// ComputeStatistics folds a sample into per-status counts and totals.
// ComputeStatistics 将采样折算为按状态计数与总量。
func ComputeStatistics(processes []*Info) *Statistics {
	stats := &Statistics{Total: len(processes)}
	for _, p := range processes {
		switch p.Status {
		case "R":
			stats.Running++
		case "S":
			stats.Sleeping++
		case "T":
			stats.Stopped++
		case "Z":
			stats.Zombie++
		}
		stats.TotalCPU += p.CPUPercent
		stats.TotalMemory += p.MemoryRSS
	}
	return stats
}

// Filter narrows a process listing.
// Filter 收窄进程列表。
type Filter struct {
	User   string `json:"user" form:"user"`
	Status string `json:"status" form:"status"`
	Name   string `json:"name" form:"name"` // 名称子串匹配 / substring match
	MinCPU float64 `json:"min_cpu" form:"min_cpu"`
}

// Match reports whether a process passes the filter.
func (f *Filter) Match(p *Info) bool {
	if f.User != "" && p.User != f.User {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.MinCPU > 0 && p.CPUPercent < f.MinCPU {
		return false
	}
	return true
}

// KillResult describes the outcome of a kill operation.
// KillResult 描述终止操作的结果。
type KillResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	AffectedPIDs []int     `json:"affected_pids"`
	Timestamp    time.Time `json:"timestamp"`
}

// KillDetail is the per-process outcome within a batch kill.
// KillDetail 是批量终止中单个进程的结果。
type KillDetail struct {
	PID     int    `json:"pid"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BatchKillResult describes the outcome of a batch kill operation.
// BatchKillResult 描述批量终止操作的结果。
type BatchKillResult struct {
	Success      bool          `json:"success"` // 全部成功才为 true / true only when every pid succeeded
	Message      string        `json:"message"`
	AffectedPIDs []int         `json:"affected_pids"`
	Details      []*KillDetail `json:"details"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ==================== 持久化模型 Persistence Models ====================

// ProcessRecord is one persisted process observation.
// ProcessRecord 是一条持久化的进程观测记录。
type ProcessRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Distro        string    `json:"distro" gorm:"size:100;not null;index:idx_process_records_distro_time"`
	PID           int       `json:"pid" gorm:"column:pid;not null;index"`
	User          string    `json:"user" gorm:"size:64"`
	Name          string    `json:"name" gorm:"size:255"`
	Command       string    `json:"command" gorm:"type:text"`
	CPUPercent    float64   `json:"cpu_percent" gorm:"type:decimal(5,1)"`
	MemoryPercent float64   `json:"memory_percent" gorm:"type:decimal(5,1)"`
	MemoryRSS     int64     `json:"memory_rss"`
	Status        string    `json:"status" gorm:"size:4"`
	ProcessType   Type      `json:"process_type" gorm:"size:20"`
	RecordedAt    time.Time `json:"recorded_at" gorm:"not null;index:idx_process_records_distro_time"`
}

// TableName specifies the table name for the ProcessRecord model.
func (ProcessRecord) TableName() string {
	return "process_records"
}

// StatSnapshot is one persisted aggregate sample of a distribution.
// StatSnapshot 是一个发行版的一条持久化聚合采样。
type StatSnapshot struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Distro      string    `json:"distro" gorm:"size:100;not null;index:idx_stat_snapshots_distro_time"`
	Total       int       `json:"total"`
	Running     int       `json:"running"`
	Sleeping    int       `json:"sleeping"`
	Stopped     int       `json:"stopped"`
	Zombie      int       `json:"zombie"`
	TotalCPU    float64   `json:"total_cpu" gorm:"type:decimal(8,1)"`
	TotalMemory int64     `json:"total_memory"`
	RecordedAt  time.Time `json:"recorded_at" gorm:"not null;index:idx_stat_snapshots_distro_time"`
}

// TableName specifies the table name for the StatSnapshot model.
func (StatSnapshot) TableName() string {
	return "stat_snapshots"
}

// OperationLog records one management action taken against a process.
// OperationLog 记录一次针对进程的管理操作。
type OperationLog struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID string    `json:"request_id" gorm:"size:36;index"`
	Distro    string    `json:"distro" gorm:"size:100;not null;index"`
	Operation string    `json:"operation" gorm:"size:20;not null"` // kill
	PID       int       `json:"pid"`
	Signal    string    `json:"signal" gorm:"size:10"`
	Success   bool      `json:"success"`
	Message   string    `json:"message" gorm:"type:text"`
	Operator  string    `json:"operator" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for the OperationLog model.
func (OperationLog) TableName() string {
	return "operation_logs"
}

// ToSnapshot converts computed statistics into a persistable snapshot row.
// ToSnapshot 将计算得到的统计转换为可持久化的快照行。
func (s *Statistics) ToSnapshot(distro string, at time.Time) *StatSnapshot {
	return &StatSnapshot{
		Distro:      distro,
		Total:       s.Total,
		Running:     s.Running,
		Sleeping:    s.Sleeping,
		Stopped:     s.Stopped,
		Zombie:      s.Zombie,
		TotalCPU:    s.TotalCPU,
		TotalMemory: s.TotalMemory,
		RecordedAt:  at,
	}
}
