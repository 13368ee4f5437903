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

package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wslmonitor/wslmonitor/internal/apps/distro"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/apps/ws"
	"github.com/wslmonitor/wslmonitor/internal/cache"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeRuntime 模拟 WSL 运行时
type fakeRuntime struct {
	available bool
	distros   []*wsl.Distro
}

func (f *fakeRuntime) IsAvailable(ctx context.Context) bool {
	return f.available
}

func (f *fakeRuntime) ListDistros(ctx context.Context) ([]*wsl.Distro, error) {
	return f.distros, nil
}

// fakeSampler 模拟进程采样器
type fakeSampler struct {
	processes []*wsl.Process
}

func (f *fakeSampler) ListProcesses(ctx context.Context, distro string) ([]*wsl.Process, error) {
	return f.processes, nil
}

func (f *fakeSampler) ProcessExists(ctx context.Context, distro string, pid int) bool {
	return false
}

func (f *fakeSampler) Signal(ctx context.Context, distro string, pid int, sig wsl.Signal) error {
	return nil
}

func (f *fakeSampler) ParentPID(ctx context.Context, distro string, pid int) (int, error) {
	return 1, nil
}

func setupDashboardTestDB(t *testing.T) (*gorm.DB, func()) {
	tempDir, err := os.MkdirTemp("", "dashboard_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to open database: %v", err)
	}

	if err := db.AutoMigrate(&process.ProcessRecord{}, &process.StatSnapshot{}, &process.OperationLog{}); err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func newOverviewFixture(t *testing.T, repo *process.Repository) *OverviewService {
	runtime := &fakeRuntime{
		available: true,
		distros: []*wsl.Distro{
			{Name: "Ubuntu", State: "Running", Version: "2", IsDefault: true},
			{Name: "Debian", State: "Stopped", Version: "2"},
		},
	}
	sampler := &fakeSampler{}
	processService := process.NewService(sampler, cache.NewSampleCache(time.Second, nil), repo)
	return NewOverviewService(distro.NewService(runtime), processService, ws.NewHub())
}

func TestOverviewService_GetOverviewStats(t *testing.T) {
	db, cleanup := setupDashboardTestDB(t)
	defer cleanup()

	svc := newOverviewFixture(t, process.NewRepository(db))

	stats, err := svc.GetOverviewStats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.WSLAvailable)
	assert.Equal(t, 2, stats.TotalDistros)
	assert.Equal(t, 1, stats.RunningCount)
	assert.Equal(t, "Ubuntu", stats.DefaultDistro)
	assert.Equal(t, 0, stats.ActiveConnections)
	assert.True(t, stats.HistoryEnabled)
}

func TestOverviewService_HistoryDisabled(t *testing.T) {
	svc := newOverviewFixture(t, nil)

	stats, err := svc.GetOverviewStats(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.HistoryEnabled)

	// 历史关闭时最近操作返回空列表而非错误
	operations, err := svc.GetRecentOperations(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, operations)
}

func TestOverviewService_GetDistroSummaries(t *testing.T) {
	db, cleanup := setupDashboardTestDB(t)
	defer cleanup()

	repo := process.NewRepository(db)
	recordedAt := time.Now().Add(-time.Minute)
	require.NoError(t, repo.SaveSnapshot(context.Background(), &process.StatSnapshot{
		Distro:      "Ubuntu",
		Total:       42,
		Running:     3,
		Sleeping:    39,
		TotalCPU:    12.5,
		TotalMemory: 204800,
		RecordedAt:  recordedAt,
	}))

	svc := newOverviewFixture(t, repo)

	summaries, err := svc.GetDistroSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	ubuntu := summaries[0]
	assert.Equal(t, "Ubuntu", ubuntu.Name)
	assert.True(t, ubuntu.IsDefault)
	assert.Equal(t, 42, ubuntu.Total)
	assert.Equal(t, 12.5, ubuntu.TotalCPU)
	require.NotNil(t, ubuntu.SnapshotAt)

	// 无快照的发行版仅有基础信息
	debian := summaries[1]
	assert.Equal(t, "Debian", debian.Name)
	assert.Equal(t, 0, debian.Total)
	assert.Nil(t, debian.SnapshotAt)
}

func TestOverviewService_GetOverviewData(t *testing.T) {
	db, cleanup := setupDashboardTestDB(t)
	defer cleanup()

	repo := process.NewRepository(db)
	require.NoError(t, repo.SaveOperation(context.Background(), &process.OperationLog{
		Distro:    "Ubuntu",
		Operation: "kill",
		PID:       1234,
		Signal:    "SIGTERM",
		Success:   true,
		Operator:  "admin",
	}))

	svc := newOverviewFixture(t, repo)

	data, err := svc.GetOverviewData(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data.Stats)
	assert.Len(t, data.DistroSummaries, 2)
	require.Len(t, data.RecentOperations, 1)
	assert.Equal(t, 1234, data.RecentOperations[0].PID)
}
