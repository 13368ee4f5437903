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

import "strings"

// ==================== 数据模型 Data Models ====================

// Distro 表示一个已安装的 WSL 发行版
// Distro represents an installed WSL distribution.
type Distro struct {
	Name      string `json:"name"`       // 发行版名称 distribution name
	State     string `json:"state"`      // 运行状态 Running/Stopped
	Version   string `json:"version"`    // WSL 版本 1/2
	IsDefault bool   `json:"is_default"` // 是否默认发行版 default distribution
}

// IsRunning reports whether the distribution is currently running.
// IsRunning 报告发行版当前是否在运行。
func (d *Distro) IsRunning() bool {
	return strings.EqualFold(d.State, "Running")
}

// ==================== 解析 Parsing ====================

// ParseDistroList parses the output of `wsl -l -v`.
// ParseDistroList 解析 `wsl -l -v` 的输出。
//
// Expected shape / 预期格式:
//
//	  NAME            STATE           VERSION
//	* Ubuntu-22.04    Running         2
//	  Debian          Stopped         2
//
// The first line is a header and is skipped. A leading asterisk marks the
// default distribution. Lines with fewer than three columns are ignored.
// 第一行是表头，跳过。行首星号标记默认发行版。少于三列的行被忽略。
func ParseDistroList(output string) []*Distro {
	lines := strings.Split(output, "\n")
	if len(lines) <= 1 {
		return nil
	}

	var distros []*Distro
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isDefault := false
		if strings.HasPrefix(line, "*") {
			isDefault = true
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		distros = append(distros, &Distro{
			Name:      fields[0],
			State:     fields[1],
			Version:   fields[2],
			IsDefault: isDefault,
		})
	}
	return distros
}
