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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wslmonitor/wslmonitor/internal/cache"
	"github.com/wslmonitor/wslmonitor/internal/wsl"
)

// fakeSampler is an in-memory Sampler for service tests.
// fakeSampler 是用于服务测试的内存 Sampler。
type fakeSampler struct {
	processes map[string][]*wsl.Process // 按发行版 / keyed by distro
	listCalls int
	signaled  []int
	signalErr error
	// killed PIDs disappear from ProcessExists after a signal
	// 收到信号的 PID 在 ProcessExists 中消失
	dieOnSignal bool
}

func newFakeSampler(processes ...*wsl.Process) *fakeSampler {
	return &fakeSampler{
		processes:   map[string][]*wsl.Process{"Ubuntu": processes},
		dieOnSignal: true,
	}
}

func (f *fakeSampler) ListProcesses(ctx context.Context, distro string) ([]*wsl.Process, error) {
	f.listCalls++
	return f.processes[distro], nil
}

func (f *fakeSampler) ProcessExists(ctx context.Context, distro string, pid int) bool {
	if f.dieOnSignal {
		for _, signaled := range f.signaled {
			if signaled == pid {
				return false
			}
		}
	}
	for _, p := range f.processes[distro] {
		if p.PID == pid {
			return true
		}
	}
	return false
}

func (f *fakeSampler) Signal(ctx context.Context, distro string, pid int, sig wsl.Signal) error {
	if f.signalErr != nil {
		return f.signalErr
	}
	f.signaled = append(f.signaled, pid)
	return nil
}

func (f *fakeSampler) ParentPID(ctx context.Context, distro string, pid int) (int, error) {
	return 1, nil
}

func newTestService(t *testing.T, sampler *fakeSampler, withRepo bool) *Service {
	t.Helper()

	var repo *Repository
	if withRepo {
		db, cleanup := setupTestDB(t)
		t.Cleanup(cleanup)
		repo = NewRepository(db)
	}

	svc := NewService(sampler, cache.NewSampleCache(time.Second, nil), repo)
	svc.killWait = time.Millisecond
	return svc
}

// TestService_ListUsesCache verifies a second listing within the TTL does
// not rerun ps.
// TestService_ListUsesCache 验证 TTL 内的第二次列表不会重复执行 ps。
func TestService_ListUsesCache(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
	)
	svc := newTestService(t, sampler, false)
	ctx := context.Background()

	first, err := svc.List(ctx, "Ubuntu", true, nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, sampler.listCalls)

	_, err = svc.List(ctx, "Ubuntu", true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sampler.listCalls)

	// refresh 绕过缓存
	_, err = svc.List(ctx, "Ubuntu", false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sampler.listCalls)
}

// TestService_ListEnriches verifies protection and type flags are attached.
// TestService_ListEnriches 验证附加了保护与类型标记。
func TestService_ListEnriches(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 1, User: "root", Name: "init", Status: "S"},
		&wsl.Process{PID: 300, User: "dev", Name: "python3", Status: "R"},
	)
	svc := newTestService(t, sampler, false)

	infos, err := svc.List(context.Background(), "Ubuntu", true, nil)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.True(t, infos[0].IsProtected)
	assert.Equal(t, TypeSystem, infos[0].ProcessType)
	assert.False(t, infos[1].IsProtected)
	assert.Equal(t, TypeApplication, infos[1].ProcessType)
}

// TestService_Statistics verifies statistics come from the same sample as
// the listing.
func TestService_Statistics(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "a", Status: "R", CPUPercent: 2.0, MemoryRSS: 10},
		&wsl.Process{PID: 201, User: "dev", Name: "b", Status: "S", CPUPercent: 1.0, MemoryRSS: 20},
	)
	svc := newTestService(t, sampler, false)

	stats, err := svc.Statistics(context.Background(), "Ubuntu")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Running)
	assert.Equal(t, 1, stats.Sleeping)
	assert.InDelta(t, 3.0, stats.TotalCPU, 0.001)
	assert.Equal(t, int64(30), stats.TotalMemory)
}

// TestService_Get verifies single process lookup resolves the parent PID.
func TestService_Get(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
	)
	svc := newTestService(t, sampler, false)

	info, err := svc.Get(context.Background(), "Ubuntu", 200)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PPID)

	_, err = svc.Get(context.Background(), "Ubuntu", 9999)
	assert.ErrorIs(t, err, ErrProcessNotFound)

	_, err = svc.Get(context.Background(), "Ubuntu", 0)
	assert.ErrorIs(t, err, ErrInvalidPID)
}

// TestService_Kill_Success verifies the verified kill flow and the
// operation log entry.
// TestService_Kill_Success 验证带校验的终止流程与操作日志写入。
func TestService_Kill_Success(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
	)
	svc := newTestService(t, sampler, true)
	ctx := context.Background()

	result, err := svc.Kill(ctx, "Ubuntu", 200, wsl.SIGTERM, "admin")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []int{200}, result.AffectedPIDs)
	assert.Equal(t, []int{200}, sampler.signaled)

	ops, err := svc.Operations(ctx, "Ubuntu", 10)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "kill", ops[0].Operation)
	assert.Equal(t, "SIGTERM", ops[0].Signal)
	assert.Equal(t, "admin", ops[0].Operator)
	assert.True(t, ops[0].Success)
	assert.NotEmpty(t, ops[0].RequestID)
}

// TestService_Kill_ProtectedRejectsSIGKILL verifies SIGKILL is refused for
// protected processes while SIGTERM is allowed.
// TestService_Kill_ProtectedRejectsSIGKILL 验证受保护进程拒绝 SIGKILL 但
// 允许 SIGTERM。
func TestService_Kill_ProtectedRejectsSIGKILL(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 500, User: "root", Name: "rsyslogd", Status: "S"},
	)
	svc := newTestService(t, sampler, true)
	ctx := context.Background()

	result, err := svc.Kill(ctx, "Ubuntu", 500, wsl.SIGKILL, "admin")
	assert.ErrorIs(t, err, ErrProcessProtected)
	assert.Nil(t, result)
	assert.Empty(t, sampler.signaled)

	// 拒绝同样留痕
	ops, err := svc.Operations(ctx, "Ubuntu", 10)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.False(t, ops[0].Success)
	assert.Contains(t, ops[0].Message, "protected")

	result, err = svc.Kill(ctx, "Ubuntu", 500, wsl.SIGTERM, "admin")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

// TestService_Kill_TargetMissing verifies killing an absent PID fails
// without sending a signal.
func TestService_Kill_TargetMissing(t *testing.T) {
	sampler := newFakeSampler()
	svc := newTestService(t, sampler, false)

	result, err := svc.Kill(context.Background(), "Ubuntu", 4242, wsl.SIGTERM, "admin")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, sampler.signaled)
}

// TestService_Kill_SurvivorReportsFailure verifies a process surviving the
// signal is reported as not terminated.
// TestService_Kill_SurvivorReportsFailure 验证在信号后仍存活的进程被报告
// 为未终止。
func TestService_Kill_SurvivorReportsFailure(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "stubborn", Status: "R"},
	)
	sampler.dieOnSignal = false
	svc := newTestService(t, sampler, false)

	result, err := svc.Kill(context.Background(), "Ubuntu", 200, wsl.SIGTERM, "admin")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "still running")
}

// TestService_Kill_Validation verifies input validation errors.
func TestService_Kill_Validation(t *testing.T) {
	svc := newTestService(t, newFakeSampler(), false)
	ctx := context.Background()

	_, err := svc.Kill(ctx, "Ubuntu", 0, wsl.SIGTERM, "admin")
	assert.ErrorIs(t, err, ErrInvalidPID)

	_, err = svc.Kill(ctx, "Ubuntu", 42, wsl.Signal("SIGHUP"), "admin")
	assert.ErrorIs(t, err, ErrInvalidSignal)
}

// TestService_KillBatch verifies per-pid outcomes and the aggregate flag.
// TestService_KillBatch 验证逐 PID 结果与汇总标记。
func TestService_KillBatch(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 1, User: "root", Name: "init", Status: "S"}, // 受保护
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
		&wsl.Process{PID: 201, User: "dev", Name: "top", Status: "S"},
	)
	svc := newTestService(t, sampler, true)

	result, err := svc.KillBatch(context.Background(), "Ubuntu", []int{200, 201, 1}, wsl.SIGKILL, "admin")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.ElementsMatch(t, []int{200, 201}, result.AffectedPIDs)
	require.Len(t, result.Details, 3)
	assert.True(t, result.Details[0].Success)
	assert.True(t, result.Details[1].Success)
	assert.False(t, result.Details[2].Success)
	assert.Contains(t, result.Details[2].Message, "protected")
	assert.Contains(t, result.Message, "2/3")

	// 每次尝试都有操作日志，包括被拒绝的
	ops, err := svc.Operations(context.Background(), "Ubuntu", 10)
	require.NoError(t, err)
	assert.Len(t, ops, 3)
}

// TestService_KillBatch_AllSucceed verifies the aggregate success flag.
func TestService_KillBatch_AllSucceed(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
		&wsl.Process{PID: 201, User: "dev", Name: "top", Status: "S"},
	)
	svc := newTestService(t, sampler, false)

	result, err := svc.KillBatch(context.Background(), "Ubuntu", []int{200, 201}, wsl.SIGTERM, "admin")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.ElementsMatch(t, []int{200, 201}, result.AffectedPIDs)
}

// TestService_KillBatch_Validation verifies input validation errors.
func TestService_KillBatch_Validation(t *testing.T) {
	svc := newTestService(t, newFakeSampler(), false)
	ctx := context.Background()

	_, err := svc.KillBatch(ctx, "Ubuntu", nil, wsl.SIGTERM, "admin")
	assert.ErrorIs(t, err, ErrInvalidPID)

	_, err = svc.KillBatch(ctx, "Ubuntu", []int{200}, wsl.Signal("SIGHUP"), "admin")
	assert.ErrorIs(t, err, ErrInvalidSignal)

	// 列表中的非法 pid 记为失败明细而非整体错误
	result, err := svc.KillBatch(ctx, "Ubuntu", []int{-1}, wsl.SIGTERM, "admin")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Details, 1)
	assert.Contains(t, result.Details[0].Message, "invalid pid")
}

// TestService_PersistSnapshotAndHistory verifies the snapshot task path:
// records, aggregate snapshot, and windowed history reads.
// TestService_PersistSnapshotAndHistory 验证快照任务路径：逐进程记录、
// 聚合快照与按窗口读取。
func TestService_PersistSnapshotAndHistory(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R", CPUPercent: 2.0, MemoryRSS: 100},
		&wsl.Process{PID: 201, User: "dev", Name: "top", Status: "S", CPUPercent: 0.5, MemoryRSS: 50},
	)
	svc := newTestService(t, sampler, true)
	ctx := context.Background()

	require.NoError(t, svc.PersistSnapshot(ctx, "Ubuntu"))

	snapshots, err := svc.History(ctx, "Ubuntu", time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].Total)
	assert.Equal(t, int64(150), snapshots[0].TotalMemory)

	records, err := svc.ProcessHistory(ctx, "Ubuntu", 200, time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "vim", records[0].Name)

	latest, err := svc.LatestSnapshot(ctx, "Ubuntu")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Total)
}

// TestService_HistoryDisabled verifies history calls fail cleanly without
// a repository.
func TestService_HistoryDisabled(t *testing.T) {
	svc := newTestService(t, newFakeSampler(), false)
	ctx := context.Background()

	assert.ErrorIs(t, svc.PersistSnapshot(ctx, "Ubuntu"), ErrHistoryDisabled)

	_, err := svc.History(ctx, "Ubuntu", time.Hour, 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.Operations(ctx, "Ubuntu", 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.Cleanup(ctx, time.Hour)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

// TestService_Cleanup verifies retention cleanup through the service.
func TestService_Cleanup(t *testing.T) {
	sampler := newFakeSampler(
		&wsl.Process{PID: 200, User: "dev", Name: "vim", Status: "R"},
	)
	svc := newTestService(t, sampler, true)
	ctx := context.Background()

	require.NoError(t, svc.PersistSnapshot(ctx, "Ubuntu"))

	// 窗口足够大时不删任何数据
	deleted, err := svc.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	// 零保留期清空全部历史
	deleted, err = svc.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Greater(t, deleted, int64(0))
}
