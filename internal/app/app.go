// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/internal/service"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/clockx"
	"github.com/haierkeys/draft-sync-service/pkg/convert"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"github.com/haierkeys/draft-sync-service/pkg/timex"
	"github.com/haierkeys/draft-sync-service/pkg/workerpool"
	"github.com/haierkeys/draft-sync-service/pkg/writequeue"
	"golang.org/x/mod/semver"

	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// StatusBroadcastFunc pushes one save status transition to the workspace's
// connected sockets. Registered by the websocket router after the listener
// is up.
// StatusBroadcastFunc 将一次保存状态变化推送给工作区的所有连接，
// 由 WebSocket 路由在监听就绪后注册。
type StatusBroadcastFunc func(uid int64, slug string, status string, savedAt timex.Time)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger

	// Store 键值存储，写入已经过写队列串行化
	Store kvstore.Store

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Autosave 草稿会话管理器
	Autosave *autosave.Manager

	// Service 层
	SessionService service.SessionService
	DraftService   service.DraftService
	StatsService   service.StatsService
	BackupService  service.BackupService

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	statusBroadcast atomic.Value // StatusBroadcastFunc

	startTime time.Time

	// 关闭控制
	shutdownCh chan struct{}

	// 版本检查信息
	checkVersionMu sync.RWMutex
	checkVersion   pkgapp.CheckVersionInfo
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		startTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化键值存储，草稿写入经写队列按命名空间串行化
	rawStore, err := kvstore.NewClient(cfg.GetStoreConfig(), kvstore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	a.Store = service.NewGatedStore(rawStore, a.writeQueueMgr)

	// 初始化 TokenManager
	tokenConfig := pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    "draft-sync-service",
		Expiry:    cfg.GetTokenExpiry(),
	}
	a.TokenManager = pkgapp.NewTokenManager(tokenConfig)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	// Backup 段与服务配置字段同名，按名复制后补上解析过的保留时长
	backupCfg := convert.StructAssign(&cfg.Backup, &service.BackupServiceConfig{}).(*service.BackupServiceConfig)
	backupCfg.Retention = cfg.GetBackupRetention()

	svcConfig := &service.ServiceConfig{
		Session: service.SessionServiceConfig{
			SecretHash:     cfg.Security.SessionSecretHash,
			TokenExpiry:    cfg.GetTokenExpiry(),
			AllowedClients: cfg.App.AllowedClients,
		},
		Draft: service.DraftServiceConfig{
			MaxDocumentSize: cfg.GetMaxDocumentSize(),
		},
		Backup: *backupCfg,
	}

	// 初始化草稿会话管理器，状态回调转发到容器
	asConfig := cfg.GetAutosaveConfig()
	asConfig.OnStatus = a.onDraftStatus
	a.Autosave = autosave.NewManager(asConfig, a.Store, clockx.System(), logger)
	publishMetrics(a.Autosave)

	// 初始化 Service 层（依赖注入）
	a.SessionService = service.NewSessionService(a.TokenManager, logger, svcConfig)
	a.DraftService = service.NewDraftService(a.Autosave, a.Store, logger, svcConfig)
	a.BackupService = service.NewBackupService(a.Store, logger, svcConfig)
	a.StatsService = service.NewStatsService(a.Autosave, a.workerPool, a.writeQueueMgr, a.startTime, logger)

	logger.Info("App container initialized successfully",
		zap.String("storeType", string(cfg.Store.Type)),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// onDraftStatus handles every controller status transition. Runs outside the
// controller locks; the push itself is deferred to the worker pool so the
// save path never waits on slow sockets.
// onDraftStatus 处理控制器的每次状态变化。在控制器锁外执行，
// 推送转入工作池，保存路径不等待慢连接。
func (a *App) onDraftStatus(key string, status autosave.SaveStatus, savedAt timex.Time) {
	uid, slug, ok := service.SplitDraftKey(key)
	if !ok {
		return
	}

	if status == autosave.StatusSaved && a.BackupService != nil {
		a.BackupService.NotifyUpdated(uid)
	}

	hook := a.statusBroadcast.Load()
	if hook == nil {
		return
	}
	fn, ok := hook.(StatusBroadcastFunc)
	if !ok {
		return
	}

	if err := a.workerPool.SubmitAsync(context.Background(), func(ctx context.Context) error {
		fn(uid, slug, status.String(), savedAt)
		return nil
	}); err != nil {
		a.logger.Warn("draft status broadcast dropped",
			zap.String(logger.FieldKey, key),
			zap.String(logger.FieldStatus, status.String()),
			zap.Error(err))
	}
}

// SetStatusBroadcast 注册保存状态推送函数
func (a *App) SetStatusBroadcast(fn StatusBroadcastFunc) {
	a.statusBroadcast.Store(fn)
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}
		a.logger.Info("Store closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// StartTime 获取进程启动时间
func (a *App) StartTime() time.Time {
	return a.startTime
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// CheckVersion 获取版本检查信息
func (a *App) CheckVersion(clientVersion string) pkgapp.CheckVersionInfo {
	a.checkVersionMu.RLock()
	defer a.checkVersionMu.RUnlock()

	cv := a.checkVersion

	// 比较编辑器客户端版本
	if clientVersion != "" && cv.ClientVersionNewName != "" {
		v1 := clientVersion
		if !strings.HasPrefix(v1, "v") {
			v1 = "v" + v1
		}
		v2 := cv.ClientVersionNewName
		if !strings.HasPrefix(v2, "v") {
			v2 = "v" + v2
		}
		cv.ClientVersionIsNew = semver.Compare(v2, v1) > 0
	}

	// 如果没有更新，把版本名称设置为空
	if !cv.VersionIsNew {
		cv.VersionNewName = ""
	}
	if !cv.ClientVersionIsNew {
		cv.ClientVersionNewName = ""
	}

	// 返回给客户端的版本号不带 v 前缀
	cv.VersionNewName = strings.TrimPrefix(cv.VersionNewName, "v")
	cv.ClientVersionNewName = strings.TrimPrefix(cv.ClientVersionNewName, "v")
	// 补充链接信息
	if cv.VersionNewLink == "" && cv.VersionNewName != "" {
		cv.VersionNewLink = "https://github.com/haierkeys/draft-sync-service/releases/tag/" + cv.VersionNewName
	}
	if cv.ClientVersionNewLink == "" && cv.ClientVersionNewName != "" {
		cv.ClientVersionNewLink = "https://github.com/haierkeys/obsidian-draft-sync/releases/tag/" + cv.ClientVersionNewName
	}

	return cv
}

// SetCheckVersionInfo 设置版本检查信息
func (a *App) SetCheckVersionInfo(info pkgapp.CheckVersionInfo) {
	a.checkVersionMu.Lock()
	defer a.checkVersionMu.Unlock()
	a.checkVersion = info
}

// Validator 获取验证器
func (a *App) Validator() pkgapp.ValidatorInterface {
	if binding.Validator == nil {
		return nil
	}
	if v, ok := binding.Validator.(pkgapp.ValidatorInterface); ok {
		return v
	}
	return nil
}

// IsReturnSuccess 是否返回成功响应
func (a *App) IsReturnSuccess() bool {
	return a.config.App.IsReturnSuccess
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Autosave（落盘未保存草稿）-> Worker Pool -> Write Queue
// -> Backup -> Store
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 关闭草稿会话管理器，未保存的草稿在这里做最终落盘，
	// 必须先于写队列关闭
	if a.Autosave != nil {
		a.logger.Info("Shutting down autosave manager...")
		if err := a.Autosave.Shutdown(ctx); err != nil {
			a.logger.Warn("Autosave manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("autosave shutdown: %w", err))
		} else {
			a.logger.Info("Autosave manager shutdown completed")
		}
	}

	// 2. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 3. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		} else {
			a.logger.Info("write queue manager shutdown completed")
		}
	}

	// 4. 关闭备份服务（等待在途备份结束）
	if a.BackupService != nil {
		a.logger.Info("Shutting down backup service...")
		if err := a.BackupService.Shutdown(ctx); err != nil {
			a.logger.Warn("Backup service shutdown error", zap.Error(err))
		}
	}

	// 5. 关闭存储
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}
