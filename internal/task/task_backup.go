package task

import (
	"context"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/app"
)

// BackupTask 周期检查备份调度与 Git 镜像防抖标记
type BackupTask struct {
	app *app.App
}

// Name 返回任务名称
func (t *BackupTask) Name() string {
	return "BackupScheduled"
}

// LoopInterval 每分钟检查一次调度是否到期
func (t *BackupTask) LoopInterval() time.Duration {
	return 1 * time.Minute
}

// IsStartupRun 启动时先补一次检查，错过的调度立即执行
func (t *BackupTask) IsStartupRun() bool {
	return true
}

// Run 执行备份调度检查
func (t *BackupTask) Run(ctx context.Context) error {
	if t.app.BackupService == nil {
		return nil
	}
	return t.app.BackupService.ExecuteTaskBackups(ctx)
}

// NewBackupTask 创建 BackupTask 实例
func NewBackupTask(appContainer *app.App) (Task, error) {
	return &BackupTask{
		app: appContainer,
	}, nil
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		// 未启用备份时不注册任务
		if !appContainer.Config().Backup.Enabled {
			return nil, nil
		}
		return NewBackupTask(appContainer)
	})
}
