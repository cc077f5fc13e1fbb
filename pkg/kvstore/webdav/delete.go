package webdav

import (
	"context"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

func (w *WebDAV) Remove(ctx context.Context, key string) error {
	err := w.Client.Remove(w.filePath(key))
	if err != nil && !gowebdav.IsErrNotFound(err) {
		return errors.Wrap(err, "webdav")
	}
	return nil
}
