// Package service 实现业务逻辑层
package service

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/util"
	"github.com/haierkeys/draft-sync-service/pkg/workerpool"
	"github.com/haierkeys/draft-sync-service/pkg/writequeue"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// StatsService 定义服务状态采集接口
type StatsService interface {
	// Collect 采集完整服务状态，socketConnections 由传输层传入
	Collect(ctx context.Context, socketConnections int) (*dto.StatsDTO, error)
}

// statsService 实现 StatsService 接口
type statsService struct {
	manager   *autosave.Manager
	pool      *workerpool.Pool
	writes    *writequeue.Manager
	startTime time.Time
	logger    *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(manager *autosave.Manager, pool *workerpool.Pool, writes *writequeue.Manager, startTime time.Time, logger *zap.Logger) StatsService {
	return &statsService{
		manager:   manager,
		pool:      pool,
		writes:    writes,
		startTime: startTime,
		logger:    logger,
	}
}

// Collect 采集完整服务状态
// 主机探测按平台尽力而为，单项失败以零值呈现，不阻断整体采集
func (s *statsService) Collect(ctx context.Context, socketConnections int) (*dto.StatsDTO, error) {
	result := &dto.StatsDTO{
		StartTime: s.startTime,
		Uptime:    time.Since(s.startTime).Seconds(),
		Sockets:   dto.WebsocketStats{Connections: socketConnections},
	}

	stats := s.manager.Stats()
	result.Autosave = dto.AutosaveStats{
		ActiveSessions: s.manager.Len(),
		SessionsOpened: stats.Sessions.Load(),
		Saves:          stats.Saves.Load(),
		SaveErrors:     stats.SaveErrors.Load(),
		Recovered:      stats.Recovered.Load(),
		DebounceResets: stats.DebounceResets.Load(),
	}

	pm := s.pool.GetMetrics()
	result.Workers = dto.WorkerPoolStats{
		MaxWorkers:    pm.MaxWorkers,
		ActiveCount:   pm.ActiveCount,
		QueuedCount:   pm.QueuedCount,
		QueueCapacity: pm.QueueCapacity,
		Submitted:     pm.SubmittedCount,
		Completed:     pm.CompletedCount,
		Dropped:       pm.DroppedCount,
	}

	wm := s.writes.GetMetrics()
	result.Writes = dto.WriteQueueStats{
		QueueCapacity: wm.QueueCapacity,
		ActiveQueues:  wm.ActiveQueues,
		Executed:      wm.ExecutedCount,
		Dropped:       wm.DroppedCount,
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	result.Runtime = dto.RuntimeStats{
		NumGoroutine: runtime.NumGoroutine(),
		MemAlloc:     m.Alloc,
		MemTotal:     m.TotalAlloc,
		MemSys:       m.Sys,
		HeapInuse:    m.HeapInuse,
		NumGC:        m.NumGC,
	}

	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		result.CPU.ModelName = cpuInfo[0].ModelName
	}
	result.CPU.PhysicalCores, _ = cpu.CountsWithContext(ctx, false)
	result.CPU.LogicalCores, _ = cpu.CountsWithContext(ctx, true)
	result.CPU.Percent, _ = cpu.PercentWithContext(ctx, time.Second, true)

	// load.Avg 在 Windows 上不可用，保持为 nil
	if loadAvg, err := load.AvgWithContext(ctx); err == nil && loadAvg != nil {
		result.CPU.LoadAvg = &dto.LoadStats{
			Load1:  loadAvg.Load1,
			Load5:  loadAvg.Load5,
			Load15: loadAvg.Load15,
		}
	}

	if vmStat, err := mem.VirtualMemoryWithContext(ctx); err == nil && vmStat != nil {
		result.Memory = dto.MemoryStats{
			Total:       vmStat.Total,
			Available:   vmStat.Available,
			Used:        vmStat.Used,
			UsedPercent: vmStat.UsedPercent,
		}
	}

	if hostInfo, err := host.InfoWithContext(ctx); err == nil && hostInfo != nil {
		result.Host = dto.HostStats{
			Hostname:      hostInfo.Hostname,
			OS:            hostInfo.OS,
			OSPretty:      fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion),
			Platform:      hostInfo.Platform,
			Arch:          hostInfo.KernelArch,
			KernelVersion: hostInfo.KernelVersion,
			Uptime:        hostInfo.Uptime,
		}
	} else {
		// 容器内 gopsutil 可能探测失败，退回读取发行版信息
		result.Host.OS = runtime.GOOS
		result.Host.OSPretty = util.GetOSPrettyName()
		result.Host.Arch = runtime.GOARCH
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		result.Process.PID = proc.Pid
		result.Process.Name, _ = proc.NameWithContext(ctx)
		result.Process.CPUPercent, _ = proc.CPUPercentWithContext(ctx)
		result.Process.MemoryPercent, _ = proc.MemoryPercentWithContext(ctx)
	}

	// cpu.Percent 阻塞一个采样周期，请求可能已经超时
	if ctx.Err() != nil {
		return nil, code.ErrorStatsCollectFailed.WithDetails(ctx.Err().Error())
	}

	return result, nil
}

// 确保 statsService 实现了 StatsService 接口
var _ StatsService = (*statsService)(nil)
