package local_fs

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

func (l *LocalFS) Remove(ctx context.Context, key string) error {
	err := os.Remove(l.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "local_fs")
	}
	return nil
}
