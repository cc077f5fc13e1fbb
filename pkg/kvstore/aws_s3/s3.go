// Package aws_s3 基于 AWS S3 的对象存储键值后端
// Package aws_s3 keeps records as S3 objects
package aws_s3

import (
	"context"

	"github.com/haierkeys/draft-sync-service/pkg/fileurl"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	Prefix          string `yaml:"prefix"`
}

type S3 struct {
	S3Client  *s3.Client
	S3Manager *manager.Uploader
	Config    *Config
	logger    *zap.Logger
}

// Option configuration option function type
// Option 配置选项函数类型
type Option func(*S3)

// WithLogger sets the logger
// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3) {
		s.logger = logger
	}
}

var clients = make(map[string]*S3)

// NewClient creates an S3 store instance, cached per access key
// NewClient 创建 S3 存储实例，按访问密钥缓存
func NewClient(cf *Config, opts ...Option) (*S3, error) {

	if client, ok := clients[cf.AccessKeyID]; ok {
		for _, opt := range opts {
			opt(client)
		}
		return client, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cf.AccessKeyID, cf.AccessKeySecret, "")),
		config.WithRegion(cf.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}

	s3Client := s3.NewFromConfig(cfg)
	client := &S3{
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

// objectKey 键名加上对象前缀
// objectKey prepends the configured object prefix
func (p *S3) objectKey(key string) string {
	if p.Config.Prefix == "" {
		return key
	}
	return fileurl.PathSuffixCheckAdd(p.Config.Prefix, "/") + key
}

func (p *S3) Close() error {
	return nil
}
