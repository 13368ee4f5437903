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

package process

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a temp-dir SQLite database for repository testing.
// setupTestDB 创建用于仓库测试的临时目录 SQLite 数据库。
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	tempDir, err := os.MkdirTemp("", "process_repo_test_*")
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

	if err := db.AutoMigrate(&ProcessRecord{}, &StatSnapshot{}, &OperationLog{}); err != nil {
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

// TestRepository_SaveAndListSnapshots verifies snapshot persistence and
// windowed listing.
// TestRepository_SaveAndListSnapshots 验证快照持久化与按窗口查询。
func TestRepository_SaveAndListSnapshots(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		snap := &StatSnapshot{
			Distro:     "Ubuntu",
			Total:      100 + i,
			Running:    i,
			RecordedAt: now.Add(-time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.SaveSnapshot(ctx, snap))
	}

	// 仅最近 90 分钟内的两条
	snapshots, err := repo.ListSnapshots(ctx, "Ubuntu", now.Add(-90*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	// Newest first / 最新在前
	assert.Equal(t, 100, snapshots[0].Total)
	assert.Equal(t, 101, snapshots[1].Total)

	// 其他发行版不可见
	other, err := repo.ListSnapshots(ctx, "Debian", now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

// TestRepository_LatestSnapshot verifies the newest snapshot wins and a
// missing distro yields nil without error.
func TestRepository_LatestSnapshot(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.SaveSnapshot(ctx, &StatSnapshot{Distro: "Ubuntu", Total: 1, RecordedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.SaveSnapshot(ctx, &StatSnapshot{Distro: "Ubuntu", Total: 2, RecordedAt: now}))

	latest, err := repo.LatestSnapshot(ctx, "Ubuntu")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Total)

	missing, err := repo.LatestSnapshot(ctx, "Debian")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestRepository_SaveAndListRecords verifies per-process record queries.
// TestRepository_SaveAndListRecords 验证逐进程记录的查询。
func TestRepository_SaveAndListRecords(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	records := []*ProcessRecord{
		{Distro: "Ubuntu", PID: 42, Name: "vim", CPUPercent: 1.0, RecordedAt: now},
		{Distro: "Ubuntu", PID: 42, Name: "vim", CPUPercent: 2.0, RecordedAt: now.Add(-time.Minute)},
		{Distro: "Ubuntu", PID: 99, Name: "top", CPUPercent: 0.5, RecordedAt: now},
	}
	require.NoError(t, repo.SaveRecords(ctx, records))

	// 空批量不报错
	require.NoError(t, repo.SaveRecords(ctx, nil))

	all, err := repo.ListRecords(ctx, "Ubuntu", 0, now.Add(-time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyVim, err := repo.ListRecords(ctx, "Ubuntu", 42, now.Add(-time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, onlyVim, 2)
	assert.Equal(t, 1.0, onlyVim[0].CPUPercent)
}

// TestRepository_Operations verifies operation log persistence and listing.
// TestRepository_Operations 验证操作日志的持久化与查询。
func TestRepository_Operations(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	ops := []*OperationLog{
		{RequestID: "r1", Distro: "Ubuntu", Operation: "kill", PID: 42, Signal: "SIGTERM", Success: true},
		{RequestID: "r2", Distro: "Debian", Operation: "kill", PID: 7, Signal: "SIGKILL", Success: false, Message: "protected"},
	}
	for _, op := range ops {
		require.NoError(t, repo.SaveOperation(ctx, op))
	}

	all, err := repo.ListOperations(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ubuntu, err := repo.ListOperations(ctx, "Ubuntu", 10)
	require.NoError(t, err)
	require.Len(t, ubuntu, 1)
	assert.Equal(t, 42, ubuntu[0].PID)
	assert.True(t, ubuntu[0].Success)
}

// TestRepository_CleanupBefore verifies retention cleanup across all three
// history tables.
// TestRepository_CleanupBefore 验证三张历史表的保留期清理。
func TestRepository_CleanupBefore(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	old := now.Add(-48 * time.Hour)
	require.NoError(t, repo.SaveRecords(ctx, []*ProcessRecord{
		{Distro: "Ubuntu", PID: 1, RecordedAt: old},
		{Distro: "Ubuntu", PID: 2, RecordedAt: now},
	}))
	require.NoError(t, repo.SaveSnapshot(ctx, &StatSnapshot{Distro: "Ubuntu", RecordedAt: old}))
	require.NoError(t, repo.SaveSnapshot(ctx, &StatSnapshot{Distro: "Ubuntu", RecordedAt: now}))

	oldOp := &OperationLog{RequestID: "r-old", Distro: "Ubuntu", Operation: "kill", PID: 1}
	require.NoError(t, repo.SaveOperation(ctx, oldOp))
	require.NoError(t, db.Model(&OperationLog{}).
		Where("id = ?", oldOp.ID).
		Update("created_at", old).Error)

	deleted, err := repo.CleanupBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	remaining, err := repo.ListRecords(ctx, "Ubuntu", 0, now.Add(-72*time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
