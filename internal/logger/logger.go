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

// Package logger 提供基于 zap 的结构化日志，带 OpenTelemetry 上下文关联
// Package logger provides zap-based structured logging with OpenTelemetry
// context correlation.
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	base     *otelzap.Logger
	sugar    *otelzap.SugaredLogger
	initOnce sync.Once
)

// Init builds the global logger from the log config section.
// Init 根据日志配置构建全局日志记录器。
// Safe to call more than once; only the first call takes effect.
func Init() {
	initOnce.Do(func() {
		logConfig := config.Config.Log

		level := parseLevel(logConfig.Level)

		var encoder zapcore.Encoder
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if logConfig.Format == "console" {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		}

		var sink zapcore.WriteSyncer
		if logConfig.Output == "file" && logConfig.FilePath != "" {
			// 文件输出走 lumberjack 滚动
			// File output goes through lumberjack rotation.
			sink = zapcore.AddSync(&lumberjack.Logger{
				Filename:   logConfig.FilePath,
				MaxSize:    logConfig.MaxSize,
				MaxAge:     logConfig.MaxAge,
				MaxBackups: logConfig.MaxBackups,
				Compress:   logConfig.Compress,
			})
		} else {
			sink = zapcore.AddSync(os.Stdout)
		}

		core := zapcore.NewCore(encoder, sink, level)
		zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

		base = otelzap.New(zl, otelzap.WithMinLevel(level))
		sugar = base.Sugar()
	})
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ensure 返回全局 sugared logger，未初始化时先初始化
func ensure() *otelzap.SugaredLogger {
	if sugar == nil {
		Init()
	}
	return sugar
}

// DebugF 输出 Debug 级别日志
func DebugF(ctx context.Context, format string, args ...any) {
	ensure().Ctx(ctx).Debugf(format, args...)
}

// InfoF 输出 Info 级别日志
func InfoF(ctx context.Context, format string, args ...any) {
	ensure().Ctx(ctx).Infof(format, args...)
}

// WarnF 输出 Warn 级别日志
func WarnF(ctx context.Context, format string, args ...any) {
	ensure().Ctx(ctx).Warnf(format, args...)
}

// ErrorF 输出 Error 级别日志
func ErrorF(ctx context.Context, format string, args ...any) {
	ensure().Ctx(ctx).Errorf(format, args...)
}

// Sync flushes any buffered log entries.
// Sync 刷新缓冲的日志条目。
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
