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
	"sync"
)

// Hub tracks live client connections grouped by distribution.
// Hub 按发行版跟踪存活的客户端连接。
// Each client runs its own push loop; the hub only provides registration
// and counting, so a slow client never blocks the others.
// 每个客户端运行自己的推送循环；hub 只负责登记与计数，慢客户端不会阻塞
// 其他客户端。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]bool
}

// NewHub creates a new Hub instance.
// NewHub 创建一个新的 Hub 实例。
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]bool)}
}

// register adds a client under its distribution.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.distro] == nil {
		h.clients[c.distro] = make(map[*client]bool)
	}
	h.clients[c.distro][c] = true
}

// unregister removes a client, dropping the distro bucket when empty.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[c.distro], c)
	if len(h.clients[c.distro]) == 0 {
		delete(h.clients, c.distro)
	}
}

// ClientCount returns the number of live clients watching a distribution.
// ClientCount 返回正在观察某发行版的存活客户端数量。
func (h *Hub) ClientCount(distro string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[distro])
}

// TotalClients returns the number of live clients across all distributions.
// TotalClients 返回所有发行版的存活客户端总数。
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, bucket := range h.clients {
		total += len(bucket)
	}
	return total
}

// WatchedDistros returns the distributions with at least one live client.
// WatchedDistros 返回至少有一个存活客户端的发行版。
func (h *Hub) WatchedDistros() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	distros := make([]string, 0, len(h.clients))
	for distro := range h.clients {
		distros = append(distros, distro)
	}
	return distros
}
