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

// Package ws streams live process tables to WebSocket clients.
// ws 包向 WebSocket 客户端推送实时进程表。
package ws

import (
	"time"

	"github.com/wslmonitor/wslmonitor/internal/apps/process"
)

// ==================== 消息模型 Message Models ====================

// Server-to-client message types / 服务端到客户端的消息类型
const (
	MessageTypeConnection = "connection"
	MessageTypeProcesses  = "processes"
	MessageTypeError      = "error"
	MessageTypePong       = "pong"
)

// Client-to-server message types / 客户端到服务端的消息类型
const (
	ClientMessagePing        = "ping"
	ClientMessageRefresh     = "refresh"
	ClientMessageSetInterval = "set_interval"
)

// Message is the envelope for every server-to-client frame.
// Message 是所有服务端到客户端帧的信封。
type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage wraps a payload in the standard envelope.
// NewMessage 将负载包进标准信封。
func NewMessage(msgType string, data any) *Message {
	return &Message{Type: msgType, Data: data, Timestamp: time.Now()}
}

// ClientMessage is one frame received from a client.
// ClientMessage 是从客户端接收的一帧。
type ClientMessage struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"` // set_interval 的目标秒数 / target seconds for set_interval
}

// ConnectionInfo is the payload of the initial connection message.
// ConnectionInfo 是初始 connection 消息的负载。
type ConnectionInfo struct {
	Distro   string `json:"distro"`
	Interval int    `json:"interval"` // 推送间隔（秒）/ push interval in seconds
}

// ProcessesPayload is the payload of each processes push.
// ProcessesPayload 是每次 processes 推送的负载。
type ProcessesPayload struct {
	Distro     string              `json:"distro"`
	Count      int                 `json:"count"` // 本帧进程数 / processes in this frame
	Processes  []*process.Info     `json:"processes"`
	Statistics *process.Statistics `json:"statistics"`
	Changes    *ProcessChanges     `json:"changes,omitempty"`
}

// ==================== 变化检测 Change Detection ====================

// Update thresholds: smaller movements are noise and not reported.
// 变化阈值：低于阈值的波动视为噪声，不上报。
const (
	cpuChangeThreshold = 5.0  // CPU 百分比 / CPU percent
	rssChangeThreshold = 1024 // 常驻内存 KB / resident memory in KB
)

// ProcessChanges describes the difference between two consecutive samples.
// ProcessChanges 描述相邻两次采样之间的差异。
type ProcessChanges struct {
	New        []*process.Info `json:"new"`
	Terminated []int           `json:"terminated"` // 消失进程的 PID / PIDs of vanished processes
	Updated    []*process.Info `json:"updated"`
}

// IsEmpty reports whether no change crossed a threshold.
func (c *ProcessChanges) IsEmpty() bool {
	return len(c.New) == 0 && len(c.Terminated) == 0 && len(c.Updated) == 0
}

// DetectChanges diffs two samples keyed by PID. A process counts as updated
// only when its CPU or resident memory moved past the threshold.
// DetectChanges 以 PID 为键对比两次采样。仅当 CPU 或常驻内存的变化越过
// 阈值时进程才算作更新。
func DetectChanges(prev, curr []*process.Info) *ProcessChanges {
	changes := &ProcessChanges{}

	prevByPID := make(map[int]*process.Info, len(prev))
	for _, p := range prev {
		prevByPID[p.PID] = p
	}

	seen := make(map[int]bool, len(curr))
	for _, p := range curr {
		seen[p.PID] = true
		old, ok := prevByPID[p.PID]
		if !ok {
			changes.New = append(changes.New, p)
			continue
		}
		if abs(p.CPUPercent-old.CPUPercent) > cpuChangeThreshold ||
			absInt64(p.MemoryRSS-old.MemoryRSS) > rssChangeThreshold {
			changes.Updated = append(changes.Updated, p)
		}
	}

	for pid := range prevByPID {
		if !seen[pid] {
			changes.Terminated = append(changes.Terminated, pid)
		}
	}
	return changes
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
