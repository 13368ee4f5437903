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

// Package health 提供健康检查接口
// Package health provides the health check endpoint.
package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wslmonitor/wslmonitor/internal/db"
)

var startedAt = time.Now()

// HealthResponse 健康检查响应
type HealthResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     struct {
		Status        string `json:"status"`
		UptimeSeconds int64  `json:"uptime_seconds"`
		Database      bool   `json:"database"`
		Timestamp     string `json:"timestamp"`
	} `json:"data"`
}

// Health 健康检查
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/v1/health [get]
func Health(c *gin.Context) {
	resp := HealthResponse{}
	resp.Data.Status = "ok"
	resp.Data.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	resp.Data.Database = db.IsDatabaseInitialized()
	resp.Data.Timestamp = time.Now().Format(time.RFC3339)
	c.JSON(http.StatusOK, resp)
}
