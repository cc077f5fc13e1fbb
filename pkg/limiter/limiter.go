// Package limiter 基于令牌桶的接口限流
package limiter

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器统一接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 单个令牌桶的规则
type BucketRule struct {
	// Key 桶的标识，方法限流器下为请求路径
	Key string
	// FillInterval 放入令牌的间隔
	FillInterval time.Duration
	// Capacity 桶容量
	Capacity int64
	// Quantum 每次放入的令牌数
	Quantum int64
}

type Limiter struct {
	limiterBuckets map[string]*ratelimit.Bucket
}
