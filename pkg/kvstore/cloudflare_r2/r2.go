// Package cloudflare_r2 基于 Cloudflare R2 的对象存储键值后端
// Package cloudflare_r2 keeps records as R2 objects via the S3 API
package cloudflare_r2

import (
	"context"
	"fmt"

	"github.com/haierkeys/draft-sync-service/pkg/fileurl"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	AccountID       string `yaml:"account-id"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	Prefix          string `yaml:"prefix"`
}

type R2 struct {
	S3Client  *s3.Client
	S3Manager *manager.Uploader
	Config    *Config
	logger    *zap.Logger
}

// Option configuration option function type
// Option 配置选项函数类型
type Option func(*R2)

// WithLogger sets the logger
// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(r *R2) {
		r.logger = logger
	}
}

var clients = make(map[string]*R2)

// NewClient creates an R2 store instance, cached per access key
// NewClient 创建 R2 存储实例，按访问密钥缓存
func NewClient(cf *Config, opts ...Option) (*R2, error) {

	if client, ok := clients[cf.AccessKeyID]; ok {
		for _, opt := range opts {
			opt(client)
		}
		return client, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cf.AccessKeyID, cf.AccessKeySecret, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cloudflare_r2")
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cf.AccountID))
	})

	client := &R2{
		S3Client:  s3Client,
		S3Manager: manager.NewUploader(s3Client),
		Config:    cf,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	clients[cf.AccessKeyID] = client
	return client, nil
}

func (p *R2) objectKey(key string) string {
	if p.Config.Prefix == "" {
		return key
	}
	return fileurl.PathSuffixCheckAdd(p.Config.Prefix, "/") + key
}

func (p *R2) Close() error {
	return nil
}
