// Package bolt 基于 bbolt 的嵌入式键值后端，单桶存储
// Package bolt is the embedded bbolt backend; records live in a single bucket
package bolt

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

type Config struct {
	Path   string `yaml:"path" default:"storage/database/drafts.bolt"`
	Bucket string `yaml:"bucket" default:"drafts"`
}

type Bolt struct {
	DB     *bolt.DB
	Config *Config
}

func NewClient(cf *Config) (*Bolt, error) {
	if cf.Path == "" {
		return nil, errors.New("bolt: path is required")
	}
	if cf.Bucket == "" {
		cf.Bucket = "drafts"
	}

	if dir := filepath.Dir(cf.Path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "bolt")
		}
	}

	db, err := bolt.Open(cf.Path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "bolt")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cf.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "bolt")
	}

	return &Bolt{DB: db, Config: cf}, nil
}

func (b *Bolt) Close() error {
	return b.DB.Close()
}
