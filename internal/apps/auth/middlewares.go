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

// Package auth 提供用户认证相关的中间件
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/db"
	"github.com/wslmonitor/wslmonitor/internal/logger"
	"github.com/wslmonitor/wslmonitor/internal/otel_trace"
)

// 上下文键常量
const (
	ContextKeyUser = "auth_user"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	ErrorMsg string      `json:"error_msg"`
	Data     interface{} `json:"data"`
}

// LoginRequired 登录验证中间件
// 认证关闭时直接放行（本机单用户部署的默认形态），开启时验证会话并加载
// 用户。
// Passes through when auth is disabled (the default for a single-user
// localhost deployment); otherwise validates the session and loads the
// user.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.IsAuthEnabled() {
			c.Next()
			return
		}

		ctx, span := otel_trace.Start(c.Request.Context(), "LoginRequired")
		defer span.End()

		userID := GetUserIDFromContext(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				ErrorMsg: "未登录",
			})
			return
		}

		user, err := FindByID(db.GetDB(ctx), userID)
		if err != nil {
			logger.ErrorF(ctx, "[LoginRequired] 用户不存在: %d, %v", userID, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				ErrorMsg: "用户不存在",
			})
			return
		}

		if !user.IsActive {
			logger.InfoF(ctx, "[LoginRequired] 用户已禁用: %d %s", user.ID, user.Username)
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				ErrorMsg: ErrMsgUserInactive,
			})
			return
		}

		SetUserToContext(c, user)
		c.Next()
	}
}

// AdminRequired 管理员权限验证中间件
// 认证关闭时同样放行。开启时应在 LoginRequired 之后使用。
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.IsAuthEnabled() {
			c.Next()
			return
		}

		ctx, span := otel_trace.Start(c.Request.Context(), "AdminRequired")
		defer span.End()

		user := GetUserFromContext(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				ErrorMsg: "未登录",
			})
			return
		}

		if !user.IsAdmin {
			logger.InfoF(ctx, "[AdminRequired] 非管理员访问: %d %s", user.ID, user.Username)
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				ErrorMsg: "需要管理员权限",
			})
			return
		}

		c.Next()
	}
}

// SetUserToContext 将用户信息存入 Gin 上下文
func SetUserToContext(c *gin.Context, user *User) {
	c.Set(ContextKeyUser, user)
}

// GetUserFromContext 从 Gin 上下文获取用户信息
func GetUserFromContext(c *gin.Context) *User {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := value.(*User)
	if !ok {
		return nil
	}
	return user
}
