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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// Handler provides HTTP handlers for process monitoring operations.
// Handler 提供进程监控操作的 HTTP 处理器。
type Handler struct {
	service *Service
}

// NewHandler creates a new Handler instance.
// NewHandler 创建一个新的 Handler 实例。
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ==================== Request/Response Types 请求/响应类型 ====================

// ListProcessesRequest represents the query parameters for listing
// processes.
// ListProcessesRequest 表示进程列表的查询参数。
type ListProcessesRequest struct {
	User    string  `json:"user" form:"user"`
	Status  string  `json:"status" form:"status"`
	Name    string  `json:"name" form:"name"`
	MinCPU  float64 `json:"min_cpu" form:"min_cpu"`
	Refresh bool    `json:"refresh" form:"refresh"` // true 时绕过缓存 / bypasses the cache
}

// ListProcessesResponse represents the response for listing processes.
// ListProcessesResponse 表示进程列表的响应。
type ListProcessesResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		Distro     string      `json:"distro"`
		Total      int         `json:"total"`
		Processes  []*Info     `json:"processes"`
		Statistics *Statistics `json:"statistics"`
	} `json:"data"`
}

// GetProcessResponse represents the response for one process.
type GetProcessResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *Info  `json:"data"`
}

// StatisticsResponse represents the response for process statistics.
// StatisticsResponse 表示进程统计的响应。
type StatisticsResponse struct {
	ErrorMsg string      `json:"error_msg"`
	Data     *Statistics `json:"data"`
}

// KillProcessRequest represents the request for killing a process.
// KillProcessRequest 表示终止进程的请求。
type KillProcessRequest struct {
	Signal string `json:"signal"` // SIGTERM（默认）或 SIGKILL / SIGTERM (default) or SIGKILL
}

// KillProcessResponse represents the response for killing a process.
// KillProcessResponse 表示终止进程的响应。
type KillProcessResponse struct {
	ErrorMsg string      `json:"error_msg"`
	Data     *KillResult `json:"data"`
}

// BatchKillRequest represents the request for killing several processes.
// BatchKillRequest 表示批量终止进程的请求。
type BatchKillRequest struct {
	PIDs   []int  `json:"pids" binding:"required"`
	Signal string `json:"signal"` // SIGTERM（默认）或 SIGKILL / SIGTERM (default) or SIGKILL
}

// BatchKillResponse represents the response for a batch kill.
// BatchKillResponse 表示批量终止的响应。
type BatchKillResponse struct {
	ErrorMsg string           `json:"error_msg"`
	Data     *BatchKillResult `json:"data"`
}

// HistoryResponse represents the response for snapshot history.
// HistoryResponse 表示快照历史的响应。
type HistoryResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		Distro    string          `json:"distro"`
		Snapshots []*StatSnapshot `json:"snapshots"`
	} `json:"data"`
}

// ProcessHistoryResponse represents the response for one process's history.
type ProcessHistoryResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		Distro  string           `json:"distro"`
		PID     int              `json:"pid"`
		Records []*ProcessRecord `json:"records"`
	} `json:"data"`
}

// ListOperationsResponse represents the response for operation logs.
// ListOperationsResponse 表示操作日志的响应。
type ListOperationsResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		Total      int             `json:"total"`
		Operations []*OperationLog `json:"operations"`
	} `json:"data"`
}

// ==================== Handlers 处理器 ====================

// ListProcesses handles GET /api/v1/processes/:distro - lists the process
// table of a distribution.
// ListProcesses 处理 GET /api/v1/processes/:distro - 获取发行版的进程表。
// @Tags processes
// @Param distro path string true "发行版名称"
// @Param request query ListProcessesRequest false "查询参数"
// @Produce json
// @Success 200 {object} ListProcessesResponse
// @Router /api/v1/processes/{distro} [get]
func (h *Handler) ListProcesses(c *gin.Context) {
	distro := c.Param("distro")

	var req ListProcessesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ListProcessesResponse{ErrorMsg: err.Error()})
		return
	}

	filter := &Filter{User: req.User, Status: req.Status, Name: req.Name, MinCPU: req.MinCPU}
	infos, err := h.service.List(c.Request.Context(), distro, !req.Refresh, filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, ListProcessesResponse{ErrorMsg: err.Error()})
		return
	}

	resp := ListProcessesResponse{}
	resp.Data = &struct {
		Distro     string      `json:"distro"`
		Total      int         `json:"total"`
		Processes  []*Info     `json:"processes"`
		Statistics *Statistics `json:"statistics"`
	}{Distro: distro, Total: len(infos), Processes: infos, Statistics: ComputeStatistics(infos)}
	c.JSON(http.StatusOK, resp)
}

// GetProcess handles GET /api/v1/processes/:distro/:pid - returns one
// process with its parent PID resolved.
// GetProcess 处理 GET /api/v1/processes/:distro/:pid - 获取单个进程详情。
// @Tags processes
// @Param distro path string true "发行版名称"
// @Param pid path int true "进程 ID"
// @Produce json
// @Success 200 {object} GetProcessResponse
// @Router /api/v1/processes/{distro}/{pid} [get]
func (h *Handler) GetProcess(c *gin.Context) {
	distro := c.Param("distro")
	pid, err := strconv.Atoi(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, GetProcessResponse{ErrorMsg: "invalid pid"})
		return
	}

	info, err := h.service.Get(c.Request.Context(), distro, pid)
	if err != nil {
		c.JSON(h.statusForError(err), GetProcessResponse{ErrorMsg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetProcessResponse{Data: info})
}

// GetStatistics handles GET /api/v1/processes/:distro/statistics - returns
// aggregate statistics of the current sample.
// GetStatistics 处理 GET /api/v1/processes/:distro/statistics - 获取当前
// 采样的聚合统计。
// @Tags processes
// @Param distro path string true "发行版名称"
// @Produce json
// @Success 200 {object} StatisticsResponse
// @Router /api/v1/processes/{distro}/statistics [get]
func (h *Handler) GetStatistics(c *gin.Context) {
	distro := c.Param("distro")

	stats, err := h.service.Statistics(c.Request.Context(), distro)
	if err != nil {
		c.JSON(http.StatusBadGateway, StatisticsResponse{ErrorMsg: err.Error()})
		return
	}
	c.JSON(http.StatusOK, StatisticsResponse{Data: stats})
}

// KillProcess handles POST /api/v1/processes/:distro/:pid/kill - terminates
// a process with the verified kill flow.
// KillProcess 处理 POST /api/v1/processes/:distro/:pid/kill - 以带校验的
// 流程终止进程。
// @Tags processes
// @Accept json
// @Param distro path string true "发行版名称"
// @Param pid path int true "进程 ID"
// @Param request body KillProcessRequest false "终止请求"
// @Produce json
// @Success 200 {object} KillProcessResponse
// @Router /api/v1/processes/{distro}/{pid}/kill [post]
func (h *Handler) KillProcess(c *gin.Context) {
	distro := c.Param("distro")
	pid, err := strconv.Atoi(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, KillProcessResponse{ErrorMsg: "invalid pid"})
		return
	}

	req := KillProcessRequest{Signal: string(wsl.SIGTERM)}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, KillProcessResponse{ErrorMsg: err.Error()})
			return
		}
	}
	if req.Signal == "" {
		req.Signal = string(wsl.SIGTERM)
	}

	result, err := h.service.Kill(c.Request.Context(), distro, pid, wsl.Signal(req.Signal), h.operator(c))
	if err != nil {
		c.JSON(h.statusForError(err), KillProcessResponse{ErrorMsg: err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[Process] kill pid=%d distro=%s success=%v", pid, distro, result.Success)
	c.JSON(http.StatusOK, KillProcessResponse{Data: result})
}

// KillProcesses handles POST /api/v1/processes/:distro/kill - terminates
// several processes in one request.
// KillProcesses 处理 POST /api/v1/processes/:distro/kill - 批量终止进程。
// @Tags processes
// @Accept json
// @Param distro path string true "发行版名称"
// @Param request body BatchKillRequest true "批量终止请求"
// @Produce json
// @Success 200 {object} BatchKillResponse
// @Router /api/v1/processes/{distro}/kill [post]
func (h *Handler) KillProcesses(c *gin.Context) {
	distro := c.Param("distro")

	var req BatchKillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, BatchKillResponse{ErrorMsg: err.Error()})
		return
	}
	if req.Signal == "" {
		req.Signal = string(wsl.SIGTERM)
	}

	result, err := h.service.KillBatch(c.Request.Context(), distro, req.PIDs, wsl.Signal(req.Signal), h.operator(c))
	if err != nil {
		c.JSON(h.statusForError(err), BatchKillResponse{ErrorMsg: err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[Process] batch kill distro=%s pids=%v success=%v", distro, req.PIDs, result.Success)
	c.JSON(http.StatusOK, BatchKillResponse{Data: result})
}

// GetHistory handles GET /api/v1/processes/:distro/history - returns
// aggregate snapshots within a time window.
// GetHistory 处理 GET /api/v1/processes/:distro/history - 获取时间窗口内
// 的聚合快照。
// @Tags processes
// @Param distro path string true "发行版名称"
// @Param hours query int false "时间窗口（小时），默认 1"
// @Param limit query int false "返回条数上限"
// @Produce json
// @Success 200 {object} HistoryResponse
// @Router /api/v1/processes/{distro}/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	distro := c.Param("distro")
	hours := queryInt(c, "hours", 1)
	limit := queryInt(c, "limit", 200)

	snapshots, err := h.service.History(c.Request.Context(), distro, time.Duration(hours)*time.Hour, limit)
	if err != nil {
		c.JSON(h.statusForError(err), HistoryResponse{ErrorMsg: err.Error()})
		return
	}

	resp := HistoryResponse{}
	resp.Data = &struct {
		Distro    string          `json:"distro"`
		Snapshots []*StatSnapshot `json:"snapshots"`
	}{Distro: distro, Snapshots: snapshots}
	c.JSON(http.StatusOK, resp)
}

// GetProcessHistory handles GET /api/v1/processes/:distro/:pid/history -
// returns persisted observations of one process.
// GetProcessHistory 处理 GET /api/v1/processes/:distro/:pid/history -
// 获取单个进程的持久化观测记录。
// @Tags processes
// @Param distro path string true "发行版名称"
// @Param pid path int true "进程 ID"
// @Param hours query int false "时间窗口（小时），默认 1"
// @Param limit query int false "返回条数上限"
// @Produce json
// @Success 200 {object} ProcessHistoryResponse
// @Router /api/v1/processes/{distro}/{pid}/history [get]
func (h *Handler) GetProcessHistory(c *gin.Context) {
	distro := c.Param("distro")
	pid, err := strconv.Atoi(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ProcessHistoryResponse{ErrorMsg: "invalid pid"})
		return
	}
	hours := queryInt(c, "hours", 1)
	limit := queryInt(c, "limit", 500)

	records, err := h.service.ProcessHistory(c.Request.Context(), distro, pid, time.Duration(hours)*time.Hour, limit)
	if err != nil {
		c.JSON(h.statusForError(err), ProcessHistoryResponse{ErrorMsg: err.Error()})
		return
	}

	resp := ProcessHistoryResponse{}
	resp.Data = &struct {
		Distro  string           `json:"distro"`
		PID     int              `json:"pid"`
		Records []*ProcessRecord `json:"records"`
	}{Distro: distro, PID: pid, Records: records}
	c.JSON(http.StatusOK, resp)
}

// ListOperations handles GET /api/v1/operations - returns recent process
// management operations.
// ListOperations 处理 GET /api/v1/operations - 获取最近的进程管理操作。
// @Tags operations
// @Param distro query string false "按发行版过滤"
// @Param limit query int false "返回条数上限"
// @Produce json
// @Success 200 {object} ListOperationsResponse
// @Router /api/v1/operations [get]
func (h *Handler) ListOperations(c *gin.Context) {
	distro := c.Query("distro")
	limit := queryInt(c, "limit", 100)

	ops, err := h.service.Operations(c.Request.Context(), distro, limit)
	if err != nil {
		c.JSON(h.statusForError(err), ListOperationsResponse{ErrorMsg: err.Error()})
		return
	}

	resp := ListOperationsResponse{}
	resp.Data = &struct {
		Total      int             `json:"total"`
		Operations []*OperationLog `json:"operations"`
	}{Total: len(ops), Operations: ops}
	c.JSON(http.StatusOK, resp)
}

// ==================== Helpers 辅助函数 ====================

// operator resolves the acting user from the session, "anonymous" when
// auth is disabled.
func (h *Handler) operator(c *gin.Context) string {
	session := sessions.Default(c)
	if username, ok := session.Get("username").(string); ok && username != "" {
		return username
	}
	return "anonymous"
}

// statusForError maps service errors to HTTP status codes.
// statusForError 将服务层错误映射为 HTTP 状态码。
func (h *Handler) statusForError(err error) int {
	switch {
	case errors.Is(err, ErrProcessNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPID), errors.Is(err, ErrInvalidSignal):
		return http.StatusBadRequest
	case errors.Is(err, ErrProcessProtected):
		return http.StatusForbidden
	case errors.Is(err, ErrHistoryDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
