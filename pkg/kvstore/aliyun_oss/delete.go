package aliyun_oss

import (
	"context"
	"path"

	"github.com/pkg/errors"
)

func (p *OSS) Remove(ctx context.Context, key string) error {
	if p.Bucket == nil {
		if err := p.GetBucket(""); err != nil {
			return errors.Wrap(err, "aliyun_oss")
		}
	}

	err := p.Bucket.DeleteObject(path.Join(p.Config.Prefix, key))
	if err != nil {
		return errors.Wrap(err, "aliyun_oss")
	}
	return nil
}
