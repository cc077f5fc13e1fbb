package kvstore

import "go.uber.org/zap"

// Option configuration option function type
// Option 配置选项函数类型
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger passed through to backends
// WithLogger 设置传递给后端的日志器
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts ...Option) *options {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
