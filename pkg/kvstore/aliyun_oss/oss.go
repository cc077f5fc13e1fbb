// Package aliyun_oss 基于阿里云 OSS 的对象存储键值后端
// Package aliyun_oss keeps records as Aliyun OSS objects
package aliyun_oss

import (
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	Prefix          string `yaml:"prefix"`
}

type OSS struct {
	Client *oss.Client
	Bucket *oss.Bucket
	Config *Config
}

func NewClient(cf *Config) (*OSS, error) {
	client, err := oss.New(cf.Endpoint, cf.AccessKeyID, cf.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "aliyun_oss")
	}
	return &OSS{
		Client: client,
		Config: cf,
	}, nil
}

// GetBucket lazily binds the bucket handle
// GetBucket 惰性获取 bucket 句柄
func (p *OSS) GetBucket(bucketName string) error {
	if len(bucketName) <= 0 {
		bucketName = p.Config.BucketName
	}
	var err error
	p.Bucket, err = p.Client.Bucket(bucketName)
	return err
}

func (p *OSS) Close() error {
	return nil
}
