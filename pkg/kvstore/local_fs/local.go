// Package local_fs 本地文件键值后端，一条记录一个文件
// Package local_fs keeps one file per record under a local directory
package local_fs

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/haierkeys/draft-sync-service/pkg/fileurl"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath string `yaml:"save-path" default:"storage/drafts"`
	Prefix   string `yaml:"prefix"`
}

type LocalFS struct {
	Config *Config
}

func NewClient(cf *Config) (*LocalFS, error) {
	if cf.SavePath == "" {
		return nil, errors.New("local_fs: save-path is required")
	}

	dir := cf.SavePath
	if cf.Prefix != "" {
		dir = filepath.Join(dir, cf.Prefix)
	}
	if !fileurl.IsExist(dir) {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "local_fs")
		}
	}

	return &LocalFS{Config: cf}, nil
}

// filePath 键名转文件路径，键经过转义，一键一文件
// filePath escapes the key so each key maps to exactly one file
func (l *LocalFS) filePath(key string) string {
	dir := l.Config.SavePath
	if l.Config.Prefix != "" {
		dir = filepath.Join(dir, l.Config.Prefix)
	}
	return filepath.Join(dir, url.PathEscape(key))
}

func (l *LocalFS) Close() error {
	return nil
}
