// Package database 基于 gorm 的关系型键值后端，支持 sqlite / mysql / postgres
// Package database is the gorm-backed key-value backend (sqlite / mysql /
// postgres), one row per record
package database

import (
	"fmt"
	"os"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/fileurl"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type Config struct {
	// Type 数据库类型 sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/drafts.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// Charset 字符集
	Charset string `yaml:"charset"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns"`
	// RunMode debug 模式下输出 SQL 日志
	RunMode string `yaml:"-"`
}

// DraftRecord 键值行，列名 record_key 避开保留字
// DraftRecord is the row model; record_key avoids the reserved word
type DraftRecord struct {
	Key       string     `gorm:"column:record_key;primaryKey;size:512"`
	Value     string     `gorm:"column:value;type:text"`
	UpdatedAt timex.Time `gorm:"column:updated_at"`
}

type DB struct {
	Engine *gorm.DB
	Config *Config
	logger *zap.Logger
}

// Option configuration option function type
// Option 配置选项函数类型
type Option func(*DB)

// WithLogger sets the logger
// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(d *DB) {
		d.logger = logger
	}
}

func NewClient(cf *Config, opts ...Option) (*DB, error) {

	engine, err := newEngine(cf)
	if err != nil {
		return nil, err
	}

	if err := engine.AutoMigrate(&DraftRecord{}); err != nil {
		return nil, errors.Wrap(err, "database")
	}

	db := &DB{
		Engine: engine,
		Config: cf,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

func newEngine(c *Config) (*gorm.DB, error) {

	dialector := dialectorFor(c)
	if dialector == nil {
		return nil, errors.Errorf("database: unsupported type %q", c.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "database")
	}

	if c.RunMode == "debug" {
		db.Config.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database")
	}

	// SetMaxIdleConns 用于设置连接池中空闲连接的最大数量。
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)

	// SetMaxOpenConns 设置打开数据库连接的最大数量。
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)

	// SetConnMaxLifetime 设置了连接可复用的最大时间。
	sqlDB.SetConnMaxLifetime(time.Minute * 10)

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	return db, nil
}

func dialectorFor(c *Config) gorm.Dialector {
	if c.Type == "mysql" {
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		))
	} else if c.Type == "postgres" {
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host,
			c.UserName,
			c.Password,
			c.Name,
		))
	} else if c.Type == "sqlite" {
		if !fileurl.IsExist(c.Path) {
			fileurl.CreatePath(c.Path, os.ModePerm)
		}
		return sqlite.Open(c.Path)
	}
	return nil
}

func (d *DB) Close() error {
	sqlDB, err := d.Engine.DB()
	if err != nil {
		return errors.Wrap(err, "database")
	}
	return sqlDB.Close()
}
