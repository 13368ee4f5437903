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

package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

func info(pid int, cpu float64, rss int64) *process.Info {
	return &process.Info{Process: wsl.Process{PID: pid, CPUPercent: cpu, MemoryRSS: rss}}
}

// TestDetectChanges_NewAndTerminated verifies appearing and vanishing
// processes are reported.
// TestDetectChanges_NewAndTerminated 验证新增与消失的进程被上报。
func TestDetectChanges_NewAndTerminated(t *testing.T) {
	prev := []*process.Info{info(1, 0, 0), info(2, 0, 0)}
	curr := []*process.Info{info(2, 0, 0), info(3, 0, 0)}

	changes := DetectChanges(prev, curr)
	require.Len(t, changes.New, 1)
	assert.Equal(t, 3, changes.New[0].PID)
	assert.Equal(t, []int{1}, changes.Terminated)
	assert.Empty(t, changes.Updated)
}

// TestDetectChanges_UpdateThresholds verifies movement below the thresholds
// is noise and above is an update.
// TestDetectChanges_UpdateThresholds 验证低于阈值的波动视为噪声，高于阈值
// 才算更新。
func TestDetectChanges_UpdateThresholds(t *testing.T) {
	prev := []*process.Info{info(1, 10.0, 5000), info(2, 10.0, 5000), info(3, 10.0, 5000)}

	// CPU 波动 4.9，RSS 波动 1000：都在阈值内
	curr := []*process.Info{info(1, 14.9, 6000), info(2, 10.0, 5000), info(3, 10.0, 5000)}
	changes := DetectChanges(prev, curr)
	assert.True(t, changes.IsEmpty())

	// CPU 越界
	curr = []*process.Info{info(1, 15.1, 5000), info(2, 10.0, 5000), info(3, 10.0, 5000)}
	changes = DetectChanges(prev, curr)
	require.Len(t, changes.Updated, 1)
	assert.Equal(t, 1, changes.Updated[0].PID)

	// RSS 越界
	curr = []*process.Info{info(1, 10.0, 5000), info(2, 10.0, 6100), info(3, 10.0, 5000)}
	changes = DetectChanges(prev, curr)
	require.Len(t, changes.Updated, 1)
	assert.Equal(t, 2, changes.Updated[0].PID)

	// 向下波动同样越界
	curr = []*process.Info{info(1, 3.0, 5000), info(2, 10.0, 5000), info(3, 10.0, 5000)}
	changes = DetectChanges(prev, curr)
	require.Len(t, changes.Updated, 1)
	assert.Equal(t, 1, changes.Updated[0].PID)
}

// TestDetectChanges_EmptySamples verifies edge cases around empty samples.
func TestDetectChanges_EmptySamples(t *testing.T) {
	changes := DetectChanges(nil, nil)
	assert.True(t, changes.IsEmpty())

	changes = DetectChanges(nil, []*process.Info{info(1, 0, 0)})
	assert.Len(t, changes.New, 1)

	changes = DetectChanges([]*process.Info{info(1, 0, 0)}, nil)
	assert.Equal(t, []int{1}, changes.Terminated)
}

// TestHub_RegisterUnregister verifies client bookkeeping per distro.
// TestHub_RegisterUnregister 验证按发行版的客户端登记。
func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	a := &client{distro: "Ubuntu"}
	b := &client{distro: "Ubuntu"}
	c := &client{distro: "Debian"}

	hub.register(a)
	hub.register(b)
	hub.register(c)

	assert.Equal(t, 2, hub.ClientCount("Ubuntu"))
	assert.Equal(t, 1, hub.ClientCount("Debian"))
	assert.Equal(t, 3, hub.TotalClients())
	assert.ElementsMatch(t, []string{"Ubuntu", "Debian"}, hub.WatchedDistros())

	hub.unregister(a)
	hub.unregister(b)
	assert.Equal(t, 0, hub.ClientCount("Ubuntu"))
	assert.Equal(t, 1, hub.TotalClients())
	assert.ElementsMatch(t, []string{"Debian"}, hub.WatchedDistros())
}
