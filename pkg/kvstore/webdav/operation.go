package webdav

import (
	"context"
	"io/fs"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

func (w *WebDAV) Get(ctx context.Context, key string) (string, error) {
	content, err := w.Client.Read(w.filePath(key))
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return "", errors.Wrap(fs.ErrNotExist, "webdav")
		}
		return "", errors.Wrap(err, "webdav")
	}
	return string(content), nil
}

func (w *WebDAV) Set(ctx context.Context, key string, value string) error {
	err := w.Client.Write(w.filePath(key), []byte(value), os.ModePerm)
	if err != nil {
		return errors.Wrap(err, "webdav")
	}
	return nil
}

func (w *WebDAV) Keys(ctx context.Context) ([]string, error) {
	entries, err := w.Client.ReadDir(w.dir())
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "webdav")
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
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
