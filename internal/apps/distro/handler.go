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

package distro

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// sessionKeyCurrentDistro 会话中保存当前发行版的键
const sessionKeyCurrentDistro = "current_distro"

// Handler provides HTTP handlers for distribution operations.
// Handler 提供发行版操作的 HTTP 处理器。
type Handler struct {
	service *Service
}

// NewHandler creates a new Handler instance.
// NewHandler 创建一个新的 Handler 实例。
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ==================== Request/Response Types 请求/响应类型 ====================

// ListDistrosResponse represents the response for listing distributions.
// ListDistrosResponse 表示发行版列表的响应。
type ListDistrosResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		Total   int           `json:"total"`
		Distros []*wsl.Distro `json:"distros"`
	} `json:"data"`
}

// SystemStatusResponse represents the response for the system status.
// SystemStatusResponse 表示系统状态的响应。
type SystemStatusResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		*Status
		CurrentDistro string `json:"current_distro"`
		SystemTime    string `json:"system_time"`
	} `json:"data"`
}

// SetCurrentDistroResponse represents the response for selecting the
// working distribution.
// SetCurrentDistroResponse 表示选择工作发行版的响应。
type SetCurrentDistroResponse struct {
	ErrorMsg string `json:"error_msg"`
	Data     *struct {
		CurrentDistro string `json:"current_distro"`
	} `json:"data"`
}

// ==================== Handlers 处理器 ====================

// ListDistros handles GET /api/v1/distros - lists installed distributions.
// ListDistros 处理 GET /api/v1/distros - 获取已安装的发行版列表。
// @Tags distros
// @Produce json
// @Success 200 {object} ListDistrosResponse
// @Router /api/v1/distros [get]
func (h *Handler) ListDistros(c *gin.Context) {
	distros, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(h.statusForError(err), ListDistrosResponse{ErrorMsg: err.Error()})
		return
	}

	resp := ListDistrosResponse{}
	resp.Data = &struct {
		Total   int           `json:"total"`
		Distros []*wsl.Distro `json:"distros"`
	}{Total: len(distros), Distros: distros}
	c.JSON(http.StatusOK, resp)
}

// GetSystemStatus handles GET /api/v1/system/status - summarizes the WSL
// subsystem and the session's working distribution.
// GetSystemStatus 处理 GET /api/v1/system/status - 汇总 WSL 子系统与会话
// 的工作发行版。
// @Tags system
// @Produce json
// @Success 200 {object} SystemStatusResponse
// @Router /api/v1/system/status [get]
func (h *Handler) GetSystemStatus(c *gin.Context) {
	status, err := h.service.SystemStatus(c.Request.Context())
	if err != nil {
		c.JSON(h.statusForError(err), SystemStatusResponse{ErrorMsg: err.Error()})
		return
	}

	resp := SystemStatusResponse{}
	resp.Data = &struct {
		*Status
		CurrentDistro string `json:"current_distro"`
		SystemTime    string `json:"system_time"`
	}{
		Status:        status,
		CurrentDistro: h.currentDistro(c, status),
		SystemTime:    time.Now().Format(time.RFC3339),
	}
	c.JSON(http.StatusOK, resp)
}

// SetCurrentDistro handles POST /api/v1/system/distro/:name/set-current -
// stores the working distribution in the HTTP session.
// SetCurrentDistro 处理 POST /api/v1/system/distro/:name/set-current -
// 将工作发行版保存到 HTTP 会话中。
// @Tags system
// @Param name path string true "发行版名称"
// @Produce json
// @Success 200 {object} SetCurrentDistroResponse
// @Router /api/v1/system/distro/{name}/set-current [post]
func (h *Handler) SetCurrentDistro(c *gin.Context) {
	name := c.Param("name")

	exists, err := h.service.Exists(c.Request.Context(), name)
	if err != nil {
		c.JSON(h.statusForError(err), SetCurrentDistroResponse{ErrorMsg: err.Error()})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, SetCurrentDistroResponse{ErrorMsg: ErrDistroNotFound.Error()})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyCurrentDistro, name)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, SetCurrentDistroResponse{ErrorMsg: err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[Distro] current distro set to %s", name)

	resp := SetCurrentDistroResponse{}
	resp.Data = &struct {
		CurrentDistro string `json:"current_distro"`
	}{CurrentDistro: name}
	c.JSON(http.StatusOK, resp)
}

// ==================== Helpers 辅助函数 ====================

// currentDistro resolves the session's working distribution, falling back
// to the configured default and then the WSL default.
// currentDistro 解析会话中的工作发行版，依次回退到配置默认值与 WSL 默认
// 发行版。
func (h *Handler) currentDistro(c *gin.Context, status *Status) string {
	session := sessions.Default(c)
	if name, ok := session.Get(sessionKeyCurrentDistro).(string); ok && name != "" {
		return name
	}
	if configured := config.GetWSLConfig().DefaultDistro; configured != "" {
		return configured
	}
	return status.DefaultDistro
}

// statusForError maps service errors to HTTP status codes.
func (h *Handler) statusForError(err error) int {
	switch {
	case errors.Is(err, ErrWSLUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDistroNameEmpty):
		return http.StatusBadRequest
	case errors.Is(err, ErrDistroNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
