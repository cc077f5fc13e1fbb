// Package kvstore 提供草稿记录的键值持久化，支持多种后端
// Package kvstore persists draft records behind a key-value interface with
// multiple selectable backends
package kvstore

import (
	"context"
	"io/fs"

	"github.com/haierkeys/draft-sync-service/pkg/kvstore/aliyun_oss"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/aws_s3"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/bolt"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/cloudflare_r2"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/database"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/local_fs"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/memory"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/minio"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/webdav"

	"github.com/pkg/errors"
)

type Type = string

const Memory Type = "memory"
const LocalFS Type = "localfs"
const Bolt Type = "bolt"
const Database Type = "database"
const S3 Type = "s3"
const R2 Type = "r2"
const MinIO Type = "minio"
const OSS Type = "oss"
const WebDAV Type = "webdav"

var StoreTypeMap = map[Type]bool{
	Memory:   true,
	LocalFS:  true,
	Bolt:     true,
	Database: true,
	S3:       true,
	R2:       true,
	MinIO:    true,
	OSS:      true,
	WebDAV:   true,
}

// ErrNotExist 键不存在，各后端统一包装 io/fs 的同名哨兵，匹配用 errors.Is
// ErrNotExist reports a missing key; backends wrap the io/fs sentinel so
// errors.Is works across the dispatch boundary
var ErrNotExist = fs.ErrNotExist

// ErrInvalidType 未知的后端类型
var ErrInvalidType = errors.New("kvstore: invalid store type")

// Store 草稿控制器依赖的键值端口，值为序列化文本
// Store is the key-value port the controllers speak; values are serialized
// text. Get returns ErrNotExist on a miss.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Config Unified store configuration
// Config 统一的存储配置
type Config struct {
	Type Type `yaml:"type" default:"bolt"`

	// Prefix 键的命名空间，对象后端为对象前缀，文件后端为子目录
	// Prefix namespaces keys; object prefix or subdirectory per backend
	Prefix string `yaml:"prefix" default:"drafts"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/drafts"`

	// Bolt
	Path string `yaml:"path" default:"storage/database/drafts.bolt"`

	// Database (sqlite / mysql / postgres)
	DBType          string `yaml:"db-type" default:"sqlite"`
	DBPath          string `yaml:"db-path" default:"storage/database/drafts.sqlite3"`
	UserName        string `yaml:"username"`
	Password        string `yaml:"password"`
	Host            string `yaml:"host"`
	Name            string `yaml:"name"`
	TablePrefix     string `yaml:"table-prefix"`
	Charset         string `yaml:"charset" default:"utf8mb4"`
	ParseTime       bool   `yaml:"parse-time" default:"true"`
	MaxIdleConns    int    `yaml:"max-idle-conns" default:"10"`
	MaxOpenConns    int    `yaml:"max-open-conns" default:"100"`
	RunMode         string `yaml:"-"`

	// Cloud Storage (S3/OSS/MinIO/R2)
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	AccountID       string `yaml:"account-id"` // Cloudflare R2 specific

	// WebDAV
	User    string `yaml:"user"`
	DavPath string `yaml:"dav-path"`
}

// NewClient 根据配置创建对应后端的 Store
// NewClient builds the Store for the configured backend
func NewClient(config *Config, opts ...Option) (Store, error) {
	if config == nil {
		return nil, ErrInvalidType
	}

	o := newOptions(opts...)

	cType := config.Type
	if cType == Memory {
		return memory.NewClient()
	} else if cType == LocalFS {
		cfg := &local_fs.Config{
			SavePath: config.SavePath,
			Prefix:   config.Prefix,
		}
		return local_fs.NewClient(cfg)
	} else if cType == Bolt {
		cfg := &bolt.Config{
			Path:   config.Path,
			Bucket: config.Prefix,
		}
		return bolt.NewClient(cfg)
	} else if cType == Database {
		cfg := &database.Config{
			Type:         config.DBType,
			Path:         config.DBPath,
			UserName:     config.UserName,
			Password:     config.Password,
			Host:         config.Host,
			Name:         config.Name,
			TablePrefix:  config.TablePrefix,
			Charset:      config.Charset,
			ParseTime:    config.ParseTime,
			MaxIdleConns: config.MaxIdleConns,
			MaxOpenConns: config.MaxOpenConns,
			RunMode:      config.RunMode,
		}
		return database.NewClient(cfg, database.WithLogger(o.logger))
	} else if cType == S3 {
		cfg := &aws_s3.Config{
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			Prefix:          config.Prefix,
		}
		return aws_s3.NewClient(cfg, aws_s3.WithLogger(o.logger))
	} else if cType == R2 {
		cfg := &cloudflare_r2.Config{
			AccountID:       config.AccountID,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			Prefix:          config.Prefix,
		}
		return cloudflare_r2.NewClient(cfg, cloudflare_r2.WithLogger(o.logger))
	} else if cType == MinIO {
		cfg := &minio.Config{
			Endpoint:        config.Endpoint,
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			Prefix:          config.Prefix,
		}
		return minio.NewClient(cfg, minio.WithLogger(o.logger))
	} else if cType == OSS {
		cfg := &aliyun_oss.Config{
			Endpoint:        config.Endpoint,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			Prefix:          config.Prefix,
		}
		return aliyun_oss.NewClient(cfg)
	} else if cType == WebDAV {
		cfg := &webdav.Config{
			Endpoint: config.Endpoint,
			User:     config.User,
			Password: config.Password,
			Path:     config.DavPath,
			Prefix:   config.Prefix,
		}
		return webdav.NewClient(cfg)
	}
	return nil, ErrInvalidType
}
