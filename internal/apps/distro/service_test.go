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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// fakeRuntime is an in-memory Runtime for service tests.
// fakeRuntime 是用于服务测试的内存 Runtime。
type fakeRuntime struct {
	available bool
	distros   []*wsl.Distro
}

func (f *fakeRuntime) IsAvailable(ctx context.Context) bool {
	return f.available
}

func (f *fakeRuntime) ListDistros(ctx context.Context) ([]*wsl.Distro, error) {
	return f.distros, nil
}

func testDistros() []*wsl.Distro {
	return []*wsl.Distro{
		{Name: "Ubuntu-22.04", State: "Running", Version: "2", IsDefault: true},
		{Name: "Debian", State: "Stopped", Version: "2"},
	}
}

// TestService_List verifies listing and the unavailable error path.
// TestService_List 验证列表与 WSL 不可用的错误路径。
func TestService_List(t *testing.T) {
	svc := NewService(&fakeRuntime{available: true, distros: testDistros()})

	distros, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, distros, 2)

	svc = NewService(&fakeRuntime{available: false})
	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, ErrWSLUnavailable)
}

// TestService_Exists verifies installed-distro lookup.
func TestService_Exists(t *testing.T) {
	svc := NewService(&fakeRuntime{available: true, distros: testDistros()})
	ctx := context.Background()

	exists, err := svc.Exists(ctx, "Debian")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.Exists(ctx, "Arch")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrDistroNameEmpty)
}

// TestService_SystemStatus verifies the aggregate status summary.
// TestService_SystemStatus 验证聚合状态汇总。
func TestService_SystemStatus(t *testing.T) {
	svc := NewService(&fakeRuntime{available: true, distros: testDistros()})

	status, err := svc.SystemStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.WSLAvailable)
	assert.Equal(t, 2, status.DistroCount)
	assert.Equal(t, 1, status.RunningCount)
	assert.Equal(t, "Ubuntu-22.04", status.DefaultDistro)
}

// TestService_SystemStatus_Unavailable verifies the degraded status when
// WSL does not respond.
// TestService_SystemStatus_Unavailable 验证 WSL 无响应时的降级状态。
func TestService_SystemStatus_Unavailable(t *testing.T) {
	svc := NewService(&fakeRuntime{available: false})

	status, err := svc.SystemStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.WSLAvailable)
	assert.Equal(t, 0, status.DistroCount)
}
