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

// Package wsl 提供与 WSL 子系统交互的底层原语：发行版枚举、命令执行、
// 进程列表采样和信号发送。
// Package wsl provides the low-level primitives for talking to the WSL
// subsystem: distribution enumeration, command execution, process list
// sampling and signal delivery.
//
// Flow (数据流):
// 1. wsl --version        -> availability check / 可用性检查
// 2. wsl -l -v            -> distribution list / 发行版列表
// 3. wsl -d <d> -- bash -c <cmd> -> in-distro command / 发行版内命令
package wsl

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultCommandTimeout is applied when no timeout is configured.
// DefaultCommandTimeout 在未配置超时时生效。
const DefaultCommandTimeout = 30 * time.Second

// Executor runs wsl.exe subcommands with a bounded timeout.
// Executor 以有界超时运行 wsl.exe 子命令。
type Executor struct {
	binary  string
	timeout time.Duration
}

// NewExecutor creates a new Executor instance.
// NewExecutor 创建一个新的 Executor 实例。
func NewExecutor(binary string, timeout time.Duration) *Executor {
	if binary == "" {
		binary = "wsl"
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Executor{binary: binary, timeout: timeout}
}

// run executes the wsl binary with the given arguments and returns the
// decoded stdout and stderr.
// run 以给定参数执行 wsl 二进制并返回解码后的 stdout 和 stderr。
func (e *Executor) run(ctx context.Context, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return decodeConsoleOutput(stdout.Bytes()), decodeConsoleOutput(stderr.Bytes()), err
}

// IsAvailable reports whether the WSL subsystem responds to `wsl --version`.
// IsAvailable 报告 WSL 子系统是否响应 `wsl --version`。
func (e *Executor) IsAvailable(ctx context.Context) bool {
	_, _, err := e.run(ctx, "--version")
	return err == nil
}

// ListDistros returns the installed WSL distributions via `wsl -l -v`.
// ListDistros 通过 `wsl -l -v` 返回已安装的 WSL 发行版。
func (e *Executor) ListDistros(ctx context.Context) ([]*Distro, error) {
	stdout, stderr, err := e.run(ctx, "-l", "-v")
	if err != nil {
		if strings.TrimSpace(stderr) != "" {
			return nil, fmt.Errorf("list distros: %w: %s", err, strings.TrimSpace(stderr))
		}
		return nil, fmt.Errorf("list distros: %w", err)
	}
	return ParseDistroList(stdout), nil
}

// Exec runs a command inside the given distribution through bash.
// Exec 通过 bash 在给定发行版内运行命令。
// The command string is assembled server-side only; distro names travel as
// separate argv elements and are never spliced into a shell string.
// 命令字符串只在服务端拼装；发行版名称作为独立的 argv 元素传递，绝不拼进
// shell 字符串。
func (e *Executor) Exec(ctx context.Context, distro, command string) (string, string, error) {
	if distro == "" {
		return "", "", ErrNoDistro
	}
	return e.run(ctx, "-d", distro, "--", "bash", "-c", command)
}

// ListProcesses samples the process table of a distribution with
// `ps aux --no-headers`.
// ListProcesses 使用 `ps aux --no-headers` 采样发行版的进程表。
func (e *Executor) ListProcesses(ctx context.Context, distro string) ([]*Process, error) {
	stdout, stderr, err := e.Exec(ctx, distro, "ps aux --no-headers")
	if err != nil {
		// An empty table is not an error / 空进程表不是错误
		if strings.TrimSpace(stdout) == "" && exitCode(err) == 1 {
			return nil, nil
		}
		if strings.TrimSpace(stderr) != "" {
			return nil, fmt.Errorf("list processes: %w: %s", err, strings.TrimSpace(stderr))
		}
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return ParseProcessList(stdout), nil
}

// ParentPID resolves the parent PID of a process via `ps -o ppid=`.
// ParentPID 通过 `ps -o ppid=` 解析进程的父 PID。
func (e *Executor) ParentPID(ctx context.Context, distro string, pid int) (int, error) {
	stdout, _, err := e.Exec(ctx, distro, fmt.Sprintf("ps -o ppid= -p %d", pid))
	if err != nil {
		return 0, err
	}
	ppid, err := strconv.Atoi(strings.TrimSpace(stdout))
	if err != nil {
		return 0, fmt.Errorf("parse ppid of %d: %w", pid, err)
	}
	return ppid, nil
}

// ProcessExists reports whether a PID is alive inside the distribution.
// ProcessExists 报告 PID 在发行版内是否存活。
func (e *Executor) ProcessExists(ctx context.Context, distro string, pid int) bool {
	stdout, _, err := e.Exec(ctx, distro, fmt.Sprintf("ps -p %d", pid))
	return err == nil && strings.Contains(stdout, strconv.Itoa(pid))
}

// Signal delivers a signal to a process inside the distribution.
// Signal 向发行版内的进程发送信号。
// Only SIGTERM and SIGKILL are accepted. Common kill errors are mapped to
// ErrNoSuchProcess and ErrNotPermitted.
// 仅接受 SIGTERM 和 SIGKILL。常见的 kill 错误被映射为 ErrNoSuchProcess 与
// ErrNotPermitted。
func (e *Executor) Signal(ctx context.Context, distro string, pid int, sig Signal) error {
	num, ok := signalNumbers[sig]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedSignal, sig)
	}

	_, stderr, err := e.Exec(ctx, distro, fmt.Sprintf("kill -%d %d", num, pid))
	if err == nil {
		return nil
	}

	msg := strings.TrimSpace(stderr)
	switch {
	case strings.Contains(msg, "No such process"):
		return fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
	case strings.Contains(msg, "Operation not permitted"):
		return fmt.Errorf("%w: pid %d", ErrNotPermitted, pid)
	case msg != "":
		return fmt.Errorf("kill pid %d: %w: %s", pid, err, msg)
	default:
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
}

// exitCode extracts the process exit code from an exec error, -1 otherwise.
func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
