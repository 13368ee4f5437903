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

package wsl

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ==================== 数据模型 Data Models ====================

// Signal 进程信号
// Signal is a process signal name.
type Signal string

const (
	// SIGTERM 优雅终止
	SIGTERM Signal = "SIGTERM"
	// SIGKILL 强制终止
	SIGKILL Signal = "SIGKILL"
)

var signalNumbers = map[Signal]int{
	SIGTERM: 15,
	SIGKILL: 9,
}

// Process 表示 ps aux 输出中的一个进程样本
// Process represents one process sample from ps aux output.
type Process struct {
	PID           int     `json:"pid"`            // 进程 ID
	User          string  `json:"user"`           // 属主用户
	CPUPercent    float64 `json:"cpu_percent"`    // CPU 占用百分比
	MemoryPercent float64 `json:"memory_percent"` // 内存占用百分比
	MemoryVSZ     int64   `json:"memory_vsz"`     // 虚拟内存 KB
	MemoryRSS     int64   `json:"memory_rss"`     // 常驻内存 KB
	TTY           string  `json:"tty"`            // 控制终端
	Status        string  `json:"status"`         // 归一化状态 R/S/D/Z/T/I
	StartTime     string  `json:"start_time"`     // 启动时间 START 列原文
	RunningTime   string  `json:"running_time"`   // 累计 CPU 时间，已格式化
	Command       string  `json:"command"`        // 完整命令行
	Name          string  `json:"name"`           // 可执行名（命令行首词的 basename）
}

// ==================== 解析 Parsing ====================

// ParseProcessList parses `ps aux --no-headers` output into process samples.
// ParseProcessList 将 `ps aux --no-headers` 输出解析为进程样本。
// Malformed lines are skipped rather than failing the whole sample.
// 畸形行被跳过，而不是让整次采样失败。
func ParseProcessList(output string) []*Process {
	var processes []*Process
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if p := parseProcessLine(line); p != nil {
			processes = append(processes, p)
		}
	}
	return processes
}

// parseProcessLine parses a single ps aux row. The row has 11 columns:
// USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND, where COMMAND
// is everything after the tenth column and may contain spaces.
// parseProcessLine 解析单行 ps aux 输出。该行有 11 列，其中 COMMAND 是第十
// 列之后的全部内容，可能包含空格。
func parseProcessLine(line string) *Process {
	fields := splitFields(line, 11)
	if len(fields) < 11 {
		return nil
	}

	pid, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil
	}

	cpu, _ := strconv.ParseFloat(fields[2], 64)
	mem, _ := strconv.ParseFloat(fields[3], 64)
	vsz, _ := strconv.ParseInt(fields[4], 10, 64)
	rss, _ := strconv.ParseInt(fields[5], 10, 64)

	command := fields[10]
	return &Process{
		PID:           pid,
		User:          fields[0],
		CPUPercent:    cpu,
		MemoryPercent: mem,
		MemoryVSZ:     vsz,
		MemoryRSS:     rss,
		TTY:           fields[6],
		Status:        NormalizeStatus(fields[7]),
		StartTime:     fields[8],
		RunningTime:   FormatRunningTime(fields[9]),
		Command:       command,
		Name:          ExtractName(command, pid),
	}
}

// splitFields splits a line on whitespace into at most n fields, keeping
// the remainder of the line intact in the last field.
// splitFields 按空白把一行拆成至多 n 个字段，最后一个字段保留该行剩余内容。
func splitFields(line string, n int) []string {
	fields := make([]string, 0, n)
	rest := line
	for len(fields) < n-1 {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:idx])
		rest = rest[idx:]
	}
	rest = strings.TrimLeft(rest, " \t")
	if rest != "" {
		fields = append(fields, rest)
	}
	return fields
}

// ExtractName derives the display name of a process from its command line:
// the basename of the first token, or "pid-<n>" when the command is empty.
// ExtractName 从命令行推导进程展示名：首词的 basename，命令为空时退回
// "pid-<n>"。
func ExtractName(command string, pid int) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Sprintf("pid-%d", pid)
	}
	first := strings.Fields(command)[0]
	name := path.Base(first)
	if name == "" || name == "." || name == "/" {
		return fmt.Sprintf("pid-%d", pid)
	}
	return name
}

// NormalizeStatus collapses a ps STAT column value to one of the canonical
// state letters R, S, D, Z, T, I. Unknown states map to S.
// NormalizeStatus 将 ps STAT 列的值归一化为规范状态字母 R、S、D、Z、T、I，
// 未知状态映射为 S。
func NormalizeStatus(stat string) string {
	if stat == "" {
		return "S"
	}
	switch s := strings.ToUpper(stat[:1]); s {
	case "R", "S", "D", "Z", "T", "I":
		return s
	default:
		return "S"
	}
}

// FormatRunningTime renders the ps TIME column in a human readable form.
// FormatRunningTime 将 ps TIME 列渲染为可读形式。
// Two-part values are treated as minutes:seconds when the first part
// exceeds 24, otherwise hours:minutes; anything else passes through.
// 两段式数值在首段超过 24 时按 分:秒 处理，否则按 时:分；其余原样返回。
func FormatRunningTime(timeStr string) string {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return timeStr
	}
	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return timeStr
	}
	if first > 24 {
		return fmt.Sprintf("%dm %ds", first, second)
	}
	return fmt.Sprintf("%dh %dm", first, second)
}
