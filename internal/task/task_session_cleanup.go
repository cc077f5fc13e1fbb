package task

import (
	"context"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/app"

	"go.uber.org/zap"
)

// SessionCleanupTask 回收空闲的草稿会话，释放控制器与定时器
type SessionCleanupTask struct {
	app *app.App
}

// Name 返回任务名称
func (t *SessionCleanupTask) Name() string {
	return "SessionCleanup"
}

// LoopInterval 以空闲窗口的一半为节奏，保证会话最多闲置 1.5 倍窗口
func (t *SessionCleanupTask) LoopInterval() time.Duration {
	interval := t.app.Autosave.IdleTimeout() / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// IsStartupRun 启动时无历史会话，无需补跑
func (t *SessionCleanupTask) IsStartupRun() bool {
	return false
}

// Run 执行一次空闲会话清理
func (t *SessionCleanupTask) Run(ctx context.Context) error {
	closed := t.app.Autosave.CleanupIdle()
	if closed > 0 {
		t.app.Logger().Info("idle draft sessions reclaimed",
			zap.Int("closed", closed),
			zap.Int("remaining", t.app.Autosave.Len()))
	}
	return nil
}

// NewSessionCleanupTask 创建 SessionCleanupTask 实例
func NewSessionCleanupTask(appContainer *app.App) (Task, error) {
	return &SessionCleanupTask{
		app: appContainer,
	}, nil
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		return NewSessionCleanupTask(appContainer)
	})
}
