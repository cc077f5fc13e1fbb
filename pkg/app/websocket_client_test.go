package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// 验证 PendingSaves 的检查-删除操作是原子的

func TestProperty6_PendingSavesAtomicClaim(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 并发访问时，每个草稿键只能被认领一次
	properties.Property("each draft key claimed exactly once under concurrent access", prop.ForAll(
		func(keyCount int) bool {
			if keyCount <= 0 {
				return true
			}

			// 生成唯一草稿键，uid:slug 形式和线上键一致
			keys := make([]string, keyCount)
			for i := 0; i < keyCount; i++ {
				keys[i] = fmt.Sprintf("draft:%d:note-%02d", i%3+1, i)
			}

			client := &WebsocketClient{
				PendingSaves: make(map[string]PendingSaveEntry),
			}

			// 预填充所有草稿键
			for _, k := range keys {
				client.PendingSaves[k] = PendingSaveEntry{CreatedAt: time.Now()}
			}

			// 记录每个键被认领的次数
			claimCount := make(map[string]*int32)
			for _, k := range keys {
				var count int32 = 0
				claimCount[k] = &count
			}

			// 并发尝试认领每个键
			var wg sync.WaitGroup
			goroutines := 10

			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for _, k := range keys {
						// 原子检查-删除操作
						client.PendingSavesMu.Lock()
						_, ok := client.PendingSaves[k]
						if ok {
							delete(client.PendingSaves, k)
						}
						client.PendingSavesMu.Unlock()

						if ok {
							atomic.AddInt32(claimCount[k], 1)
						}
					}
				}()
			}

			wg.Wait()

			// 验证每个键只被认领一次
			for _, k := range keys {
				if *claimCount[k] != 1 {
					t.Logf("Key %s claimed %d times, expected 1", k, *claimCount[k])
					return false
				}
			}

			return true
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

// 验证超时清理机制

func TestProperty7_PendingSavesCleanup(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// 超时条目被清理，未超时条目保留
	properties.Property("expired entries are cleaned, non-expired are kept", prop.ForAll(
		func(expiredCount, nonExpiredCount int) bool {
			client := &WebsocketClient{
				PendingSaves: make(map[string]PendingSaveEntry),
			}

			timeout := 100 * time.Millisecond
			now := time.Now()

			// 添加过期条目
			for i := 0; i < expiredCount; i++ {
				key := fmt.Sprintf("draft:1:expired-%d", i)
				client.PendingSaves[key] = PendingSaveEntry{
					CreatedAt: now.Add(-timeout - time.Second), // 已过期
				}
			}

			// 添加未过期条目
			for i := 0; i < nonExpiredCount; i++ {
				key := fmt.Sprintf("draft:1:active-%d", i)
				client.PendingSaves[key] = PendingSaveEntry{
					CreatedAt: now, // 未过期
				}
			}

			// 执行清理
			cleaned := client.CleanupExpiredPendingSaves(timeout)

			// 验证清理数量
			if cleaned != expiredCount {
				t.Logf("Cleaned %d, expected %d", cleaned, expiredCount)
				return false
			}

			// 验证剩余数量
			if len(client.PendingSaves) != nonExpiredCount {
				t.Logf("Remaining %d, expected %d", len(client.PendingSaves), nonExpiredCount)
				return false
			}

			return true
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// 单元测试: PendingSaves 基本操作
func TestPendingSaves_BasicOperations(t *testing.T) {
	client := &WebsocketClient{
		PendingSaves: make(map[string]PendingSaveEntry),
	}

	// 测试添加
	key := "draft:1:scratch"
	client.PendingSavesMu.Lock()
	client.PendingSaves[key] = PendingSaveEntry{CreatedAt: time.Now()}
	client.PendingSavesMu.Unlock()

	// 测试检查存在
	client.PendingSavesMu.RLock()
	_, exists := client.PendingSaves[key]
	client.PendingSavesMu.RUnlock()

	if !exists {
		t.Error("Key should exist after adding")
	}

	// 测试原子检查-删除
	client.PendingSavesMu.Lock()
	_, ok := client.PendingSaves[key]
	if ok {
		delete(client.PendingSaves, key)
	}
	client.PendingSavesMu.Unlock()

	if !ok {
		t.Error("Key should have been found and deleted")
	}

	// 验证已删除
	client.PendingSavesMu.RLock()
	_, exists = client.PendingSaves[key]
	client.PendingSavesMu.RUnlock()

	if exists {
		t.Error("Key should not exist after deletion")
	}
}

// 单元测试: ClearAllPendingSaves
func TestClearAllPendingSaves(t *testing.T) {
	client := &WebsocketClient{
		PendingSaves: make(map[string]PendingSaveEntry),
	}

	// 添加多个条目
	keys := []string{"draft:1:a", "draft:1:b", "draft:1:c"}
	for _, k := range keys {
		client.PendingSaves[k] = PendingSaveEntry{CreatedAt: time.Now()}
	}

	// 清理所有
	count := client.ClearAllPendingSaves()

	if count != len(keys) {
		t.Errorf("ClearAllPendingSaves() = %d, want %d", count, len(keys))
	}

	if len(client.PendingSaves) != 0 {
		t.Errorf("PendingSaves should be empty after clear, got %d", len(client.PendingSaves))
	}
}

// 单元测试: CleanupExpiredPendingSaves
func TestCleanupExpiredPendingSaves(t *testing.T) {
	client := &WebsocketClient{
		PendingSaves: make(map[string]PendingSaveEntry),
	}

	timeout := 50 * time.Millisecond

	// 添加一个过期条目
	client.PendingSaves["draft:1:expired"] = PendingSaveEntry{
		CreatedAt: time.Now().Add(-100 * time.Millisecond),
	}

	// 添加一个未过期条目
	client.PendingSaves["draft:1:active"] = PendingSaveEntry{
		CreatedAt: time.Now(),
	}

	// 执行清理
	cleaned := client.CleanupExpiredPendingSaves(timeout)

	if cleaned != 1 {
		t.Errorf("CleanupExpiredPendingSaves() = %d, want 1", cleaned)
	}

	if len(client.PendingSaves) != 1 {
		t.Errorf("Should have 1 remaining entry, got %d", len(client.PendingSaves))
	}

	if _, exists := client.PendingSaves["draft:1:active"]; !exists {
		t.Error("draft:1:active should still exist")
	}
}
