package local_fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func (l *LocalFS) Get(ctx context.Context, key string) (string, error) {
	content, err := os.ReadFile(l.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			// ReadFile 的错误已包装 fs.ErrNotExist，原样返回
			// ReadFile errors already wrap fs.ErrNotExist
			return "", err
		}
		return "", errors.Wrap(err, "local_fs")
	}
	return string(content), nil
}

func (l *LocalFS) Set(ctx context.Context, key string, value string) error {
	path := l.filePath(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return errors.Wrap(err, "local_fs")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "local_fs")
	}
	return nil
}

func (l *LocalFS) Keys(ctx context.Context) ([]string, error) {
	dir := l.Config.SavePath
	if l.Config.Prefix != "" {
		dir = filepath.Join(dir, l.Config.Prefix)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "local_fs")
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) == ".tmp" {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
