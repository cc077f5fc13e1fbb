package app

import (
	"expvar"
	"sync"
	"sync/atomic"

	"github.com/haierkeys/draft-sync-service/internal/autosave"
)

// 配置重载会重建 App，而 expvar 变量名一个进程只能注册一次，
// 这里用指针中转到当前实例。
var (
	metricsOnce   sync.Once
	metricsSource atomic.Pointer[autosave.Manager]
)

// publishMetrics 把草稿会话计数发布到 /debug/vars
func publishMetrics(m *autosave.Manager) {
	metricsSource.Store(m)
	metricsOnce.Do(func() {
		expvar.Publish("autosave", expvar.Func(func() any {
			m := metricsSource.Load()
			if m == nil {
				return nil
			}
			stats := m.Stats()
			return map[string]int64{
				"sessions":       stats.Sessions.Load(),
				"liveSessions":   int64(m.Len()),
				"saves":          stats.Saves.Load(),
				"saveErrors":     stats.SaveErrors.Load(),
				"recovered":      stats.Recovered.Load(),
				"debounceResets": stats.DebounceResets.Load(),
			}
		}))
	})
}
