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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

func sampleProcesses() []*wsl.Process {
	return []*wsl.Process{
		{PID: 1, User: "root", Name: "init", Command: "/sbin/init", Status: "S"},
		{PID: 42, User: "dev", Name: "vim", Command: "vim main.go", Status: "R", CPUPercent: 2.1},
	}
}

// TestSampleCache_HitWithinTTL verifies a fresh sample is served from L1.
// TestSampleCache_HitWithinTTL 验证新采样在 TTL 内由 L1 返回。
func TestSampleCache_HitWithinTTL(t *testing.T) {
	c := NewSampleCache(time.Second, nil)
	ctx := context.Background()

	_, ok := c.GetProcesses(ctx, "Ubuntu")
	assert.False(t, ok)

	c.SetProcesses(ctx, "Ubuntu", sampleProcesses())

	got, ok := c.GetProcesses(ctx, "Ubuntu")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, 42, got[1].PID)
}

// TestSampleCache_ExpiresAfterTTL verifies entries expire after the TTL.
// TestSampleCache_ExpiresAfterTTL 验证条目在 TTL 之后过期。
func TestSampleCache_ExpiresAfterTTL(t *testing.T) {
	c := NewSampleCache(20*time.Millisecond, nil)
	ctx := context.Background()

	c.SetProcesses(ctx, "Ubuntu", sampleProcesses())
	time.Sleep(50 * time.Millisecond)

	_, ok := c.GetProcesses(ctx, "Ubuntu")
	assert.False(t, ok)
}

// TestSampleCache_InvalidateDropsEntry verifies invalidation removes the
// cached sample immediately.
// TestSampleCache_InvalidateDropsEntry 验证失效操作立即移除缓存采样。
func TestSampleCache_InvalidateDropsEntry(t *testing.T) {
	c := NewSampleCache(time.Minute, nil)
	ctx := context.Background()

	c.SetProcesses(ctx, "Debian", sampleProcesses())
	c.Invalidate(ctx, "Debian")

	_, ok := c.GetProcesses(ctx, "Debian")
	assert.False(t, ok)
}

// TestSampleCache_PerDistroIsolation verifies distros do not share entries.
// TestSampleCache_PerDistroIsolation 验证各发行版的缓存互不影响。
func TestSampleCache_PerDistroIsolation(t *testing.T) {
	c := NewSampleCache(time.Minute, nil)
	ctx := context.Background()

	c.SetProcesses(ctx, "Ubuntu", sampleProcesses())

	_, ok := c.GetProcesses(ctx, "Debian")
	assert.False(t, ok)

	c.Invalidate(ctx, "Debian")
	_, ok = c.GetProcesses(ctx, "Ubuntu")
	assert.True(t, ok)
}

// TestSampleCache_DefaultTTL verifies the fallback TTL is applied.
func TestSampleCache_DefaultTTL(t *testing.T) {
	c := NewSampleCache(0, nil)
	assert.Equal(t, 2*time.Second, c.TTL())
}
