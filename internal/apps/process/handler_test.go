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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(svc)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/api/v1/processes/:distro", h.ListProcesses)
	r.POST("/api/v1/processes/:distro/kill", h.KillProcesses)
	r.POST("/api/v1/processes/:distro/:pid/kill", h.KillProcess)
	return r
}

// TestHandler_ListProcesses_IncludesStatistics verifies the listing payload
// carries the aggregate statistics block next to the process rows.
// TestHandler_ListProcesses_IncludesStatistics 验证列表响应在进程行旁携带
// 聚合统计块。
func TestHandler_ListProcesses_IncludesStatistics(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R", CPUPercent: 2.0, MemoryRSS: 100},
		&wsl.Process{PID: 201, User: "dev", Name: "top", Status: "S", CPUPercent: 1.0, MemoryRSS: 50},
	)
	r := newTestRouter(t, newTestService(t, sampler, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/processes/Ubuntu", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListProcessesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Ubuntu", resp.Data.Distro)
	assert.Equal(t, 2, resp.Data.Total)
	require.Len(t, resp.Data.Processes, 2)

	require.NotNil(t, resp.Data.Statistics)
	assert.Equal(t, 2, resp.Data.Statistics.Total)
	assert.Equal(t, 1, resp.Data.Statistics.Running)
	assert.Equal(t, 1, resp.Data.Statistics.Sleeping)
	assert.InDelta(t, 3.0, resp.Data.Statistics.TotalCPU, 0.001)
	assert.Equal(t, int64(150), resp.Data.Statistics.TotalMemory)

	// 裸 JSON 键名也要在位
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	data, ok := raw["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "statistics")
}

// TestHandler_KillProcess_ProtectedReturns403 verifies SIGKILL on a
// protected process maps to 403 Forbidden.
// TestHandler_KillProcess_ProtectedReturns403 验证对受保护进程的 SIGKILL
// 映射为 403。
func TestHandler_KillProcess_ProtectedReturns403(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 1, User: "root", Name: "init", Status: "S"},
	)
	r := newTestRouter(t, newTestService(t, sampler, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processes/Ubuntu/1/kill",
		strings.NewReader(`{"signal":"SIGKILL"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, sampler.signaled)

	var resp KillProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.ErrorMsg, "protected")
	assert.Nil(t, resp.Data)
}

// TestHandler_KillProcesses_BatchEnvelope verifies the batch endpoint's
// per-pid details in the response envelope.
func TestHandler_KillProcesses_BatchEnvelope(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
		&wsl.Process{PID: 201, User: "dev", Name: "top", Status: "S"},
	)
	r := newTestRouter(t, newTestService(t, sampler, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/processes/Ubuntu/kill",
		strings.NewReader(`{"pids":[200,201]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp BatchKillResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.Success)
	assert.ElementsMatch(t, []int{200, 201}, resp.Data.AffectedPIDs)
	require.Len(t, resp.Data.Details, 2)
}
