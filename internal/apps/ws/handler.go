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

package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wslmonitor/wslmonitor/internal/apps/process"
	"github.com/wslmonitor/wslmonitor/internal/config"
	"github.com/wslmonitor/wslmonitor/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// upgrader accepts any origin: the server binds to loopback and fronts a
// local dashboard only.
// upgrader 接受任意 Origin：服务只绑定回环地址，面向本机仪表盘。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests and drives per-client push loops.
// Handler 升级 HTTP 请求并驱动每个客户端的推送循环。
type Handler struct {
	hub     *Hub
	service *process.Service

	// 保活参数，测试中可缩短 / keepalive knobs, shortened in tests
	pingEvery time.Duration
	readWait  time.Duration
}

// NewHandler creates a new Handler instance.
// NewHandler 创建一个新的 Handler 实例。
func NewHandler(hub *Hub, service *process.Service) *Handler {
	return &Handler{
		hub:       hub,
		service:   service,
		pingEvery: pingPeriod,
		readWait:  pongWait,
	}
}

// client is one WebSocket subscriber of a distribution.
// client 是某发行版的一个 WebSocket 订阅者。
// All writes happen in the push loop; the read loop only forwards commands
// over the channel, which keeps the gorilla writer single-threaded.
// 所有写操作都发生在推送循环中；读循环仅通过通道转发指令，保证 gorilla
// 的写端是单线程的。
type client struct {
	conn      *websocket.Conn
	distro    string
	interval  time.Duration
	pingEvery time.Duration
	readWait  time.Duration
	commands  chan ClientMessage
	done      chan struct{}
}

// Serve handles GET /api/v1/ws/:distro - upgrades the connection and
// streams process samples until the client leaves.
// Serve 处理 GET /api/v1/ws/:distro - 升级连接并持续推送进程采样，直到
// 客户端离开。
func (h *Handler) Serve(c *gin.Context) {
	distro := c.Param("distro")
	wslConfig := config.GetWSLConfig()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WarnF(c.Request.Context(), "[WS] upgrade failed: %v", err)
		return
	}

	cl := &client{
		conn:      conn,
		distro:    distro,
		interval:  time.Duration(wslConfig.RefreshInterval) * time.Second,
		pingEvery: h.pingEvery,
		readWait:  h.readWait,
		commands:  make(chan ClientMessage, 8),
		done:      make(chan struct{}),
	}

	h.hub.register(cl)
	defer func() {
		h.hub.unregister(cl)
		conn.Close()
	}()

	logger.InfoF(c.Request.Context(), "[WS] client connected distro=%s total=%d", distro, h.hub.TotalClients())

	go cl.readLoop()
	h.pushLoop(c.Request.Context(), cl)

	logger.InfoF(context.Background(), "[WS] client disconnected distro=%s total=%d", distro, h.hub.TotalClients())
}

// readLoop consumes client frames and forwards them as commands.
// readLoop 消费客户端帧并作为指令转发。
// The read deadline is refreshed by data frames and by pongs, so a
// listen-only client stays connected as long as it answers pings.
// 读超时由数据帧和 pong 共同刷新，只收不发的客户端只要应答 ping 就不会
// 掉线。
func (cl *client) readLoop() {
	defer close(cl.done)

	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(cl.readWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(cl.readWait))
	})

	for {
		var msg ClientMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}
		cl.conn.SetReadDeadline(time.Now().Add(cl.readWait))
		select {
		case cl.commands <- msg:
		default:
			// 客户端刷指令刷得太快时丢弃
		}
	}
}

// pushLoop periodically samples the distribution and pushes frames.
// pushLoop 周期性采样发行版并推送帧。
func (h *Handler) pushLoop(ctx context.Context, cl *client) {
	// 建连确认
	if err := cl.write(NewMessage(MessageTypeConnection, &ConnectionInfo{
		Distro:   cl.distro,
		Interval: int(cl.interval.Seconds()),
	})); err != nil {
		return
	}

	var previous []*process.Info

	// 先推一帧再进入节拍
	previous = h.pushSample(ctx, cl, previous, false)

	ticker := time.NewTicker(cl.interval)
	defer ticker.Stop()

	// 周期性 ping，让只收不发的客户端通过 pong 维持连接
	// Periodic pings let listen-only clients stay alive via pongs.
	pings := time.NewTicker(cl.pingEvery)
	defer pings.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			previous = h.pushSample(ctx, cl, previous, false)
		case <-pings.C:
			if err := cl.ping(); err != nil {
				return
			}
		case cmd := <-cl.commands:
			switch cmd.Type {
			case ClientMessagePing:
				if err := cl.write(NewMessage(MessageTypePong, nil)); err != nil {
					return
				}
			case ClientMessageRefresh:
				// 绕过缓存立即推送
				previous = h.pushSample(ctx, cl, previous, true)
			case ClientMessageSetInterval:
				cl.interval = h.clampInterval(cmd.Interval)
				ticker.Reset(cl.interval)
				if err := cl.write(NewMessage(MessageTypeConnection, &ConnectionInfo{
					Distro:   cl.distro,
					Interval: int(cl.interval.Seconds()),
				})); err != nil {
					return
				}
			}
		}
	}
}

// pushSample sends one processes frame and returns the sample for the next
// diff. Sampling errors go to the client as error frames and keep the
// previous baseline.
// pushSample 推送一帧进程数据并返回本次采样用于下次对比。采样错误以
// error 帧发给客户端，基线保持不变。
func (h *Handler) pushSample(ctx context.Context, cl *client, previous []*process.Info, refresh bool) []*process.Info {
	infos, err := h.service.List(ctx, cl.distro, !refresh, nil)
	if err != nil {
		logger.WarnF(ctx, "[WS] sample %s failed: %v", cl.distro, err)
		_ = cl.write(NewMessage(MessageTypeError, gin.H{"message": err.Error()}))
		return previous
	}

	payload := &ProcessesPayload{
		Distro:     cl.distro,
		Count:      len(infos),
		Processes:  infos,
		Statistics: process.ComputeStatistics(infos),
	}
	if previous != nil {
		if changes := DetectChanges(previous, infos); !changes.IsEmpty() {
			payload.Changes = changes
		}
	}

	if err := cl.write(NewMessage(MessageTypeProcesses, payload)); err != nil {
		return previous
	}
	return infos
}

// clampInterval bounds a client-requested interval to the configured range.
// clampInterval 将客户端请求的间隔限制在配置范围内。
func (h *Handler) clampInterval(seconds int) time.Duration {
	wslConfig := config.GetWSLConfig()
	if seconds < wslConfig.MinRefreshInterval {
		seconds = wslConfig.MinRefreshInterval
	}
	if seconds > wslConfig.MaxRefreshInterval {
		seconds = wslConfig.MaxRefreshInterval
	}
	return time.Duration(seconds) * time.Second
}

func (cl *client) write(msg *Message) error {
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(msg)
}

func (cl *client) ping() error {
	return cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
