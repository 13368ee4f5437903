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

// Package cache 提供进程采样的两级缓存：进程内 L1 加可选的 Redis L2。
// Package cache provides the two-level cache for process samples: an
// in-process L1 plus an optional Redis L2.
//
// L1 absorbs the burst of concurrent REST and WebSocket readers between
// two ps runs. L2 only matters when several server processes share one
// Redis; single-process deployments run L1-only.
// L1 吸收两次 ps 采样之间并发的 REST 与 WebSocket 读取；L2 仅在多个服务
// 进程共享一个 Redis 时有意义，单进程部署只用 L1。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

const redisKeyPrefix = "wslmon:sample:"

// SampleCache caches per-distro process samples with a short TTL.
// SampleCache 以短 TTL 缓存各发行版的进程采样。
type SampleCache struct {
	l1  *gocache.Cache
	l2  *redis.Client // nil 时禁用 L2 / L2 disabled when nil
	ttl time.Duration
}

// NewSampleCache creates a sample cache. redisClient may be nil.
// NewSampleCache 创建采样缓存。redisClient 可以为 nil。
func NewSampleCache(ttl time.Duration, redisClient *redis.Client) *SampleCache {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &SampleCache{
		l1:  gocache.New(ttl, 10*ttl),
		l2:  redisClient,
		ttl: ttl,
	}
}

// GetProcesses returns the cached sample for a distribution, or false when
// the entry is missing or expired. An L2 hit is promoted into L1.
// GetProcesses 返回发行版的缓存采样，条目缺失或过期时返回 false。L2 命中
// 会回填到 L1。
func (c *SampleCache) GetProcesses(ctx context.Context, distro string) ([]*wsl.Process, bool) {
	if v, ok := c.l1.Get(distro); ok {
		if processes, ok := v.([]*wsl.Process); ok {
			return processes, true
		}
	}

	if c.l2 == nil {
		return nil, false
	}

	data, err := c.l2.Get(ctx, redisKeyPrefix+distro).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WarnF(ctx, "[Cache] redis get %s failed: %v", distro, err)
		}
		return nil, false
	}

	var processes []*wsl.Process
	if err := json.Unmarshal(data, &processes); err != nil {
		logger.WarnF(ctx, "[Cache] decode cached sample of %s failed: %v", distro, err)
		return nil, false
	}

	c.l1.Set(distro, processes, gocache.DefaultExpiration)
	return processes, true
}

// SetProcesses stores a fresh sample in both cache levels.
// SetProcesses 将新采样写入两级缓存。
// L2 failures are logged and ignored; the L1 copy keeps serving.
// L2 失败只记日志；L1 副本继续提供服务。
func (c *SampleCache) SetProcesses(ctx context.Context, distro string, processes []*wsl.Process) {
	c.l1.Set(distro, processes, gocache.DefaultExpiration)

	if c.l2 == nil {
		return
	}
	data, err := json.Marshal(processes)
	if err != nil {
		logger.WarnF(ctx, "[Cache] encode sample of %s failed: %v", distro, err)
		return
	}
	if err := c.l2.Set(ctx, redisKeyPrefix+distro, data, c.ttl).Err(); err != nil {
		logger.WarnF(ctx, "[Cache] redis set %s failed: %v", distro, err)
	}
}

// Invalidate drops the cached sample of a distribution from both levels.
// Invalidate 从两级缓存中删除某发行版的采样。
// Called after a kill so the next read reflects the change immediately.
// 在终止进程后调用，下一次读取立即反映变化。
func (c *SampleCache) Invalidate(ctx context.Context, distro string) {
	c.l1.Delete(distro)
	if c.l2 != nil {
		if err := c.l2.Del(ctx, redisKeyPrefix+distro).Err(); err != nil {
			logger.WarnF(ctx, "[Cache] redis del %s failed: %v", distro, err)
		}
	}
}

// TTL returns the configured sample TTL.
func (c *SampleCache) TTL() time.Duration {
	return c.ttl
}
