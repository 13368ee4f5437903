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

// Package distro provides WSL distribution discovery and selection.
// distro 包提供 WSL 发行版的发现与选择功能。
package distro

import (
	"context"

	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// Runtime is the slice of the WSL executor the service needs.
// Runtime 是服务所需的 WSL 执行器子集。
type Runtime interface {
	IsAvailable(ctx context.Context) bool
	ListDistros(ctx context.Context) ([]*wsl.Distro, error)
}

// Status describes the WSL subsystem as a whole.
// Status 描述整个 WSL 子系统的状态。
type Status struct {
	WSLAvailable  bool          `json:"wsl_available"`
	DistroCount   int           `json:"distro_count"`
	RunningCount  int           `json:"running_count"`
	DefaultDistro string        `json:"default_distro"`
	Distros       []*wsl.Distro `json:"distros"`
}

// Service implements distribution discovery operations.
// Service 实现发行版发现操作。
type Service struct {
	runtime Runtime
}

// NewService creates a new Service instance.
// NewService 创建一个新的 Service 实例。
func NewService(runtime Runtime) *Service {
	return &Service{runtime: runtime}
}

// List returns the installed distributions.
// List 返回已安装的发行版。
func (s *Service) List(ctx context.Context) ([]*wsl.Distro, error) {
	if !s.runtime.IsAvailable(ctx) {
		return nil, ErrWSLUnavailable
	}
	return s.runtime.ListDistros(ctx)
}

// Exists reports whether a named distribution is installed.
// Exists 报告指定名称的发行版是否已安装。
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, ErrDistroNameEmpty
	}
	distros, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range distros {
		if d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// SystemStatus summarizes the WSL subsystem for the status endpoint.
// SystemStatus 为状态接口汇总 WSL 子系统。
// An unavailable WSL yields a status with WSLAvailable false, not an
// error, so the dashboard can render the degraded state.
// WSL 不可用时返回 WSLAvailable 为 false 的状态而非错误，便于仪表盘渲染
// 降级状态。
func (s *Service) SystemStatus(ctx context.Context) (*Status, error) {
	if !s.runtime.IsAvailable(ctx) {
		return &Status{}, nil
	}

	distros, err := s.runtime.ListDistros(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{
		WSLAvailable: true,
		DistroCount:  len(distros),
		Distros:      distros,
	}
	for _, d := range distros {
		if d.IsRunning() {
			status.RunningCount++
		}
		if d.IsDefault {
			status.DefaultDistro = d.Name
		}
	}
	return status, nil
}
