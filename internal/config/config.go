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

// Package config 提供基于 viper 的配置加载
// Package config provides viper-based configuration loading.
package config

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/viper"
)

var Config *configModel

func init() {
	// 加载配置文件路径
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// 设置配置文件
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	// 读取配置文件；缺失时退回默认值（本机工具常直接裸跑）
	// Read config file; fall back to defaults when missing (the tool is
	// often run bare on a workstation).
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) || errors.As(err, &viper.ConfigFileNotFoundError{}) {
			log.Printf("[Config] config file %s not found, using defaults\n", configPath)
		} else {
			log.Fatalf("[Config] read config failed: %v\n", err)
		}
	}

	// 解析配置到结构体
	var c configModel
	if err := viper.Unmarshal(&c); err != nil {
		log.Fatalf("[Config] parse config failed: %v\n", err)
	}

	// 设置默认值
	setDefaults(&c)

	// 设置全局配置
	Config = &c
}

// setDefaults 设置配置默认值
func setDefaults(c *configModel) {
	// 应用默认配置
	if c.App.AppName == "" {
		c.App.AppName = "wsl-process-monitor"
	}
	if c.App.Addr == "" {
		c.App.Addr = "127.0.0.1:8000"
	}
	if c.App.APIPrefix == "" {
		c.App.APIPrefix = "/api"
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.SessionCookieName == "" {
		c.App.SessionCookieName = "wslmon_session"
	}
	if c.App.SessionSecret == "" {
		c.App.SessionSecret = "wslmon-insecure-default-secret"
	}
	if c.App.SessionAge == 0 {
		c.App.SessionAge = 86400 * 7
	}

	// 数据库默认配置
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/wsl_monitor.db"
	}

	// 认证默认配置
	if c.Auth.DefaultAdminUsername == "" {
		c.Auth.DefaultAdminUsername = "admin"
	}
	if c.Auth.DefaultAdminPassword == "" {
		c.Auth.DefaultAdminPassword = "admin123"
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}

	// WSL 默认配置
	if c.WSL.Binary == "" {
		c.WSL.Binary = "wsl"
	}
	if c.WSL.CommandTimeoutSeconds == 0 {
		c.WSL.CommandTimeoutSeconds = 30
	}
	if c.WSL.SampleCacheTTLSeconds == 0 {
		c.WSL.SampleCacheTTLSeconds = 2
	}
	if c.WSL.RefreshInterval == 0 {
		c.WSL.RefreshInterval = 2
	}
	if c.WSL.MinRefreshInterval == 0 {
		c.WSL.MinRefreshInterval = 1
	}
	if c.WSL.MaxRefreshInterval == 0 {
		c.WSL.MaxRefreshInterval = 10
	}

	// 历史数据默认配置
	if c.History.RetentionHours == 0 {
		c.History.RetentionHours = 24
	}
	if c.History.SnapshotIntervalSeconds == 0 {
		c.History.SnapshotIntervalSeconds = 30
	}
	if c.History.CleanupIntervalMinutes == 0 {
		c.History.CleanupIntervalMinutes = 60
	}

	// 后台任务默认配置
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 4
	}

	// 追踪默认采样率
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1.0
	}
}

// GetDatabaseType 获取数据库类型
func GetDatabaseType() string {
	return Config.Database.Type
}

// GetSQLitePath 获取 SQLite 文件路径
func GetSQLitePath() string {
	return Config.Database.SQLitePath
}

// GetAuthConfig 获取认证配置
func GetAuthConfig() AuthConfig {
	return Config.Auth
}

// GetWSLConfig 获取 WSL 配置
func GetWSLConfig() WSLConfig {
	return Config.WSL
}

// GetHistoryConfig 获取历史数据配置
func GetHistoryConfig() HistoryConfig {
	return Config.History
}

// IsRedisEnabled 检查 Redis 是否启用
func IsRedisEnabled() bool {
	return Config.Redis.Enabled
}

// IsAuthEnabled 检查认证是否启用
func IsAuthEnabled() bool {
	return Config.Auth.Enabled
}

// IsClickHouseEnabled 检查 ClickHouse 归档是否启用
func IsClickHouseEnabled() bool {
	return Config.ClickHouse.Enabled
}
