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
	"time"

	"gorm.io/gorm"
)

// Repository provides data access for process history persistence.
// Repository 提供进程历史持久化的数据访问。
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository instance.
// NewRepository 创建一个新的 Repository 实例。
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveRecords persists one batch of process observations.
// SaveRecords 持久化一批进程观测记录。
func (r *Repository) SaveRecords(ctx context.Context, records []*ProcessRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 200).Error
}

// SaveSnapshot persists one aggregate snapshot.
// SaveSnapshot 持久化一条聚合快照。
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *StatSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// SaveOperation persists one operation log entry.
// SaveOperation 持久化一条操作日志。
func (r *Repository) SaveOperation(ctx context.Context, op *OperationLog) error {
	return r.db.WithContext(ctx).Create(op).Error
}

// ListSnapshots returns snapshots of a distribution within a time window,
// newest first.
// ListSnapshots 返回某发行版时间窗口内的快照，按时间倒序。
func (r *Repository) ListSnapshots(ctx context.Context, distro string, since time.Time, limit int) ([]*StatSnapshot, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var snapshots []*StatSnapshot
	err := r.db.WithContext(ctx).
		Where("distro = ? AND recorded_at >= ?", distro, since).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

// LatestSnapshot returns the most recent snapshot of a distribution, or nil
// when none exists.
// LatestSnapshot 返回某发行版最近的一条快照，不存在时为 nil。
func (r *Repository) LatestSnapshot(ctx context.Context, distro string) (*StatSnapshot, error) {
	var snapshot StatSnapshot
	err := r.db.WithContext(ctx).
		Where("distro = ?", distro).
		Order("recorded_at DESC").
		First(&snapshot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// ListRecords returns process observations of a distribution within a time
// window. A pid of 0 matches all processes.
// ListRecords 返回某发行版时间窗口内的进程观测记录。pid 为 0 时匹配所有
// 进程。
func (r *Repository) ListRecords(ctx context.Context, distro string, pid int, since time.Time, limit int) ([]*ProcessRecord, error) {
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	query := r.db.WithContext(ctx).
		Where("distro = ? AND recorded_at >= ?", distro, since)
	if pid > 0 {
		query = query.Where("pid = ?", pid)
	}
	var records []*ProcessRecord
	err := query.Order("recorded_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// ListOperations returns recent operation log entries, newest first. An
// empty distro matches all distributions.
// ListOperations 返回最近的操作日志，按时间倒序。distro 为空时匹配所有
// 发行版。
func (r *Repository) ListOperations(ctx context.Context, distro string, limit int) ([]*OperationLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Model(&OperationLog{})
	if distro != "" {
		query = query.Where("distro = ?", distro)
	}
	var ops []*OperationLog
	err := query.Order("created_at DESC").Limit(limit).Find(&ops).Error
	return ops, err
}

// CleanupBefore deletes history rows older than the cutoff and returns the
// number of rows removed.
// CleanupBefore 删除早于截止时间的历史数据，返回删除的行数。
func (r *Repository) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64

	res := r.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&ProcessRecord{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	res = r.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&StatSnapshot{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	res = r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&OperationLog{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	return total, nil
}
