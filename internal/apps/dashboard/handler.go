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

package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// OverviewHandler handles dashboard overview HTTP requests.
// OverviewHandler 处理仪表盘概览 HTTP 请求。
type OverviewHandler struct {
	service *OverviewService
}

// NewOverviewHandler creates a new dashboard overview handler.
// NewOverviewHandler 创建新的仪表盘概览处理器。
func NewOverviewHandler(service *OverviewService) *OverviewHandler {
	return &OverviewHandler{service: service}
}

// GetOverviewStats godoc
// @Summary Get dashboard overview statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} DashboardDataResponse{data=OverviewStats}
// @Failure 500 {object} DashboardDataResponse
// @Router /api/v1/dashboard/overview/stats [get]
func (h *OverviewHandler) GetOverviewStats(c *gin.Context) {
	stats, err := h.service.GetOverviewStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, DashboardDataResponse{
			ErrorMsg: "获取概览统计失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, DashboardDataResponse{Data: stats})
}

// GetDistroSummaries godoc
// @Summary Get distribution summaries
// @Tags Dashboard
// @Produce json
// @Success 200 {object} DashboardDataResponse{data=[]DistroSummary}
// @Failure 500 {object} DashboardDataResponse
// @Router /api/v1/dashboard/overview/distros [get]
func (h *OverviewHandler) GetDistroSummaries(c *gin.Context) {
	summaries, err := h.service.GetDistroSummaries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, DashboardDataResponse{
			ErrorMsg: "获取发行版摘要失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, DashboardDataResponse{Data: summaries})
}

// GetRecentOperations godoc
// @Summary Get recent process operations
// @Tags Dashboard
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Success 200 {object} DashboardDataResponse{data=[]process.OperationLog}
// @Failure 500 {object} DashboardDataResponse
// @Router /api/v1/dashboard/overview/operations [get]
func (h *OverviewHandler) GetRecentOperations(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	operations, err := h.service.GetRecentOperations(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, DashboardDataResponse{
			ErrorMsg: "获取最近操作失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, DashboardDataResponse{Data: operations})
}

// GetOverviewData godoc
// @Summary Get complete dashboard overview data
// @Tags Dashboard
// @Produce json
// @Success 200 {object} DashboardDataResponse{data=OverviewData}
// @Failure 500 {object} DashboardDataResponse
// @Router /api/v1/dashboard/overview [get]
func (h *OverviewHandler) GetOverviewData(c *gin.Context) {
	data, err := h.service.GetOverviewData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, DashboardDataResponse{
			ErrorMsg: "获取概览数据失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, DashboardDataResponse{Data: data})
}
