package task

import (
	"sync"

	"github.com/haierkeys/draft-sync-service/internal/app"
)

// TaskAppFactory 任务工厂函数类型，注入 App Container 创建任务实例
type TaskAppFactory func(appContainer *app.App) (Task, error)

// taskRegistry 全局任务注册表
var (
	taskRegistry  []TaskAppFactory
	registryMutex sync.RWMutex
)

// RegisterWithApp 注册任务工厂函数，各任务文件在 init() 里调用
func RegisterWithApp(factory TaskAppFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	taskRegistry = append(taskRegistry, factory)
}

// GetAppFactories 返回注册表的副本
func GetAppFactories() []TaskAppFactory {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	factories := make([]TaskAppFactory, len(taskRegistry))
	copy(factories, taskRegistry)
	return factories
}
