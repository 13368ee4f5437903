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

// Package archive 提供基于 ClickHouse 的长期进程样本归档
// Package archive provides long-horizon process sample archiving backed by
// ClickHouse. SQLite keeps the short rolling window served by the history
// API; ClickHouse keeps the full sample stream for offline analysis.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/logger"
)

const samplesTable = "process_samples"

// ClickHouseArchiver writes process samples into ClickHouse.
// ClickHouseArchiver 将进程样本写入 ClickHouse。
type ClickHouseArchiver struct {
	conn     driver.Conn
	database string
}

// NewClickHouseArchiver opens a ClickHouse connection from configuration and
// ensures the target table exists.
// NewClickHouseArchiver 根据配置打开 ClickHouse 连接并确保目标表存在。
func NewClickHouseArchiver(ctx context.Context, cfg *config.ClickHouseConfig) (*ClickHouseArchiver, error) {
	dialTimeout := time.Duration(cfg.DialTimeout) * time.Second
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Hosts,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:     dialTimeout,
		MaxIdleConns:    cfg.MaxIdleConn,
		MaxOpenConns:    cfg.MaxOpenConn,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("[Archive] 连接 ClickHouse 失败: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("[Archive] ClickHouse ping 失败: %w", err)
	}

	a := &ClickHouseArchiver{conn: conn, database: cfg.Database}
	if err := a.ensureSchema(ctx); err != nil {
		return nil, err
	}

	logger.InfoF(ctx, "[Archive] ClickHouse 归档已启用: %v", cfg.Hosts)
	return a, nil
}

// ensureSchema 创建样本表（不存在时）
func (a *ClickHouseArchiver) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    distro        LowCardinality(String),
    recorded_at   DateTime64(3),
    pid           Int32,
    user          LowCardinality(String),
    name          String,
    command       String,
    status        LowCardinality(String),
    process_type  LowCardinality(String),
    cpu_percent   Float64,
    memory_percent Float64,
    memory_rss    Int64,
    memory_vsz    Int64,
    is_protected  UInt8
) ENGINE = MergeTree()
ORDER BY (distro, recorded_at, pid)
TTL toDateTime(recorded_at) + INTERVAL 90 DAY
`, samplesTable)

	if err := a.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("[Archive] 创建样本表失败: %w", err)
	}
	return nil
}

// ArchiveSample appends one full sample as a batch insert.
// ArchiveSample 以批量插入的方式追加一次完整采样。
func (a *ClickHouseArchiver) ArchiveSample(ctx context.Context, distro string, recordedAt time.Time, processes []*process.Info) error {
	if len(processes) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", samplesTable))
	if err != nil {
		return fmt.Errorf("[Archive] 准备批量插入失败: %w", err)
	}

	for _, p := range processes {
		protected := uint8(0)
		if p.IsProtected {
			protected = 1
		}
		if err := batch.Append(
			distro,
			recordedAt,
			int32(p.PID),
			p.User,
			p.Name,
			p.Command,
			p.Status,
			string(p.ProcessType),
			p.CPUPercent,
			p.MemoryPercent,
			p.MemoryRSS,
			p.MemoryVSZ,
			protected,
		); err != nil {
			return fmt.Errorf("[Archive] 追加样本行失败: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("[Archive] 提交批量插入失败: %w", err)
	}
	return nil
}

// Close releases the ClickHouse connection.
// Close 释放 ClickHouse 连接。
func (a *ClickHouseArchiver) Close() error {
	return a.conn.Close()
}
