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

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/logger"
)

// Runner drives the periodic jobs.
// Runner 驱动周期性任务。
type Runner interface {
	Start() error
	Stop()
}

// NewRunner selects the runner implementation. Redis deployments get an
// asynq server with a scheduler; without Redis plain tickers run the same
// jobs in-process.
// NewRunner 选择运行器实现。启用 Redis 时使用带调度器的 asynq 服务，否则
// 使用进程内的定时器运行相同任务。
func NewRunner(jobs *Jobs) Runner {
	if config.IsRedisEnabled() {
		return &asynqRunner{jobs: jobs}
	}
	return &tickerRunner{jobs: jobs}
}

// ==================== asynq 运行器 ====================

// asynqRunner runs the jobs on an asynq worker fed by its scheduler.
// asynqRunner 通过 asynq 调度器驱动任务执行。
type asynqRunner struct {
	jobs      *Jobs
	server    *asynq.Server
	scheduler *asynq.Scheduler
}

func (r *asynqRunner) Start() error {
	redisConfig := config.Config.Redis
	opt := asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port),
		Username: redisConfig.Username,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	}

	concurrency := config.Config.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	r.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSnapshotCapture, func(ctx context.Context, t *asynq.Task) error {
		return r.jobs.CaptureSnapshots(ctx)
	})
	mux.HandleFunc(TypeHistoryCleanup, func(ctx context.Context, t *asynq.Task) error {
		return r.jobs.CleanupHistory(ctx)
	})

	if err := r.server.Start(mux); err != nil {
		return fmt.Errorf("[Tasks] 启动 asynq 服务失败: %w", err)
	}

	r.scheduler = asynq.NewScheduler(opt, nil)
	if _, err := r.scheduler.Register(
		fmt.Sprintf("@every %s", snapshotInterval()),
		asynq.NewTask(TypeSnapshotCapture, nil),
	); err != nil {
		return fmt.Errorf("[Tasks] 注册快照任务失败: %w", err)
	}
	if _, err := r.scheduler.Register(
		fmt.Sprintf("@every %s", cleanupInterval()),
		asynq.NewTask(TypeHistoryCleanup, nil),
	); err != nil {
		return fmt.Errorf("[Tasks] 注册清理任务失败: %w", err)
	}

	if err := r.scheduler.Start(); err != nil {
		return fmt.Errorf("[Tasks] 启动 asynq 调度器失败: %w", err)
	}

	logger.InfoF(context.Background(), "[Tasks] asynq 运行器已启动，快照间隔 %s，清理间隔 %s",
		snapshotInterval(), cleanupInterval())
	return nil
}

func (r *asynqRunner) Stop() {
	if r.scheduler != nil {
		r.scheduler.Shutdown()
	}
	if r.server != nil {
		r.server.Shutdown()
	}
}

// ==================== 定时器运行器 ====================

// tickerRunner runs the jobs with in-process tickers.
// tickerRunner 使用进程内定时器运行任务。
type tickerRunner struct {
	jobs *Jobs
	stop chan struct{}
	wg   sync.WaitGroup
}

func (r *tickerRunner) Start() error {
	r.stop = make(chan struct{})

	r.loop(snapshotInterval(), r.jobs.CaptureSnapshots)
	r.loop(cleanupInterval(), r.jobs.CleanupHistory)

	logger.InfoF(context.Background(), "[Tasks] 进程内运行器已启动，快照间隔 %s，清理间隔 %s",
		snapshotInterval(), cleanupInterval())
	return nil
}

func (r *tickerRunner) loop(interval time.Duration, job func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if err := job(context.Background()); err != nil {
					logger.WarnF(context.Background(), "[Tasks] 任务执行失败: %v", err)
				}
			}
		}
	}()
}

func (r *tickerRunner) Stop() {
	close(r.stop)
	r.wg.Wait()
}
