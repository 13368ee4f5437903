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

package config

type configModel struct {
	App        AppConfig        `mapstructure:"app"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	WSL        WSLConfig        `mapstructure:"wsl"`
	History    HistoryConfig    `mapstructure:"history"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

// AppConfig 应用基本配置
type AppConfig struct {
	AppName           string `mapstructure:"app_name"`
	Env               string `mapstructure:"env"`
	Addr              string `mapstructure:"addr"`
	APIPrefix         string `mapstructure:"api_prefix"`
	SessionCookieName string `mapstructure:"session_cookie_name"`
	SessionSecret     string `mapstructure:"session_secret"`
	SessionDomain     string `mapstructure:"session_domain"`
	SessionAge        int    `mapstructure:"session_age"`
	SessionHttpOnly   bool   `mapstructure:"session_http_only"`
	SessionSecure     bool   `mapstructure:"session_secure"`
}

// AuthConfig 认证配置
// When Enabled is false the API is open, which is the default for a
// single-user localhost deployment.
// Enabled 为 false 时 API 开放访问（本机单用户部署的默认值）。
type AuthConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	DefaultAdminUsername string `mapstructure:"default_admin_username"`
	DefaultAdminPassword string `mapstructure:"default_admin_password"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Type            string `mapstructure:"type"`        // sqlite, mysql, postgres
	SQLitePath      string `mapstructure:"sqlite_path"` // SQLite 文件路径
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConn     int    `mapstructure:"max_idle_conn"`
	MaxOpenConn     int    `mapstructure:"max_open_conn"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConn  int    `mapstructure:"min_idle_conn"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json, console
	Output     string `mapstructure:"output"` // stdout, file
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// TelemetryConfig OpenTelemetry 追踪配置
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// WSLConfig WSL 交互配置
type WSLConfig struct {
	Binary                string `mapstructure:"binary"`                  // wsl.exe 路径，默认 "wsl" / wsl.exe path, defaults to "wsl"
	DefaultDistro         string `mapstructure:"default_distro"`          // 默认发行版 / Default distribution
	CommandTimeoutSeconds int    `mapstructure:"command_timeout_seconds"` // 子进程超时 / Subprocess timeout
	SampleCacheTTLSeconds int    `mapstructure:"sample_cache_ttl_seconds"`
	RefreshInterval       int    `mapstructure:"refresh_interval"`     // WebSocket 推送间隔（秒）/ WebSocket push interval (seconds)
	MinRefreshInterval    int    `mapstructure:"min_refresh_interval"` // 客户端可设置的下限 / Lower bound a client may set
	MaxRefreshInterval    int    `mapstructure:"max_refresh_interval"` // 客户端可设置的上限 / Upper bound a client may set
}

// HistoryConfig 历史数据配置
type HistoryConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	RetentionHours          int  `mapstructure:"retention_hours"`
	SnapshotIntervalSeconds int  `mapstructure:"snapshot_interval_seconds"`
	CleanupIntervalMinutes  int  `mapstructure:"cleanup_interval_minutes"`
}

// ClickHouseConfig ClickHouse 配置（可选的长期样本归档）
// ClickHouseConfig (optional long-horizon sample archive)
type ClickHouseConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Hosts           []string `mapstructure:"hosts"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	Database        string   `mapstructure:"database"`
	MaxIdleConn     int      `mapstructure:"max_idle_conn"`
	MaxOpenConn     int      `mapstructure:"max_open_conn"`
	ConnMaxLifetime int      `mapstructure:"conn_max_lifetime"`
	DialTimeout     int      `mapstructure:"dial_timeout"`
}

// WorkerConfig 后台任务配置
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}
