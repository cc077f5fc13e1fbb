// Package minio 基于 MinIO 的对象存储键值后端，走 S3 兼容接口
// Package minio keeps records in MinIO through its S3-compatible API
package minio

import (
	"context"

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
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	Prefix          string `yaml:"prefix"`
}

type MinIO struct {
	S3Client  *s3.Client
	S3Manager *manager.Uploader
	Config    *Config
	logger    *zap.Logger
}

// Option configuration option function type
// Option 配置选项函数类型
type Option func(*MinIO)

// WithLogger sets the logger
// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(m *MinIO) {
		m.logger = logger
	}
}

var clients = make(map[string]*MinIO)

// NewClient creates a MinIO store instance, cached per access key
// NewClient 创建 MinIO 存储实例，按访问密钥缓存
func NewClient(cf *Config, opts ...Option) (*MinIO, error) {

	if client, ok := clients[cf.AccessKeyID]; ok {
		for _, opt := range opts {
			opt(client)
		}
		return client, nil
	}

	region := cf.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cf.AccessKeyID, cf.AccessKeySecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "minio")
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cf.Endpoint)
		// MinIO 要求 path-style 访问
		// MinIO requires path-style access
		o.UsePathStyle = true
	})

	client := &MinIO{
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

func (p *MinIO) objectKey(key string) string {
	if p.Config.Prefix == "" {
		return key
	}
	return fileurl.PathSuffixCheckAdd(p.Config.Prefix, "/") + key
}

func (p *MinIO) Close() error {
	return nil
}
