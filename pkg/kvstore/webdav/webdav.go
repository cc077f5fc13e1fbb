// Package webdav 基于 WebDAV 的键值后端
// Package webdav keeps records as files on a WebDAV server
package webdav

import (
	"net/url"
	"path"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息。
type Config struct {
	Endpoint string `yaml:"endpoint"`
	Path     string `yaml:"path"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
}

// WebDAV 结构体表示 WebDAV 客户端。
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

func NewClient(cf *Config) (*WebDAV, error) {
	if cf.Endpoint == "" {
		return nil, errors.New("webdav: endpoint is required")
	}

	client := gowebdav.NewClient(cf.Endpoint, cf.User, cf.Password)

	w := &WebDAV{
		Client: client,
		Config: cf,
	}
	if err := client.MkdirAll(w.dir(), 0644); err != nil {
		return nil, errors.Wrap(err, "webdav")
	}
	return w, nil
}

func (w *WebDAV) dir() string {
	return path.Join("/", w.Config.Path, w.Config.Prefix)
}

// filePath 键经过转义后映射为远端文件
// filePath escapes the key into a single remote file name
func (w *WebDAV) filePath(key string) string {
	return path.Join(w.dir(), url.PathEscape(key))
}

func (w *WebDAV) Close() error {
	return nil
}
