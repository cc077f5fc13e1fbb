package aliyun_oss

import (
	"context"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

func (p *OSS) Get(ctx context.Context, key string) (string, error) {
	if p.Bucket == nil {
		if err := p.GetBucket(""); err != nil {
			return "", errors.Wrap(err, "aliyun_oss")
		}
	}

	body, err := p.Bucket.GetObject(path.Join(p.Config.Prefix, key))
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == 404 {
			return "", errors.Wrap(fs.ErrNotExist, "aliyun_oss")
		}
		return "", errors.Wrap(err, "aliyun_oss")
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return "", errors.Wrap(err, "aliyun_oss")
	}
	return string(content), nil
}

func (p *OSS) Set(ctx context.Context, key string, value string) error {
	if p.Bucket == nil {
		if err := p.GetBucket(""); err != nil {
			return errors.Wrap(err, "aliyun_oss")
		}
	}

	err := p.Bucket.PutObject(path.Join(p.Config.Prefix, key), strings.NewReader(value))
	if err != nil {
		return errors.Wrap(err, "aliyun_oss")
	}
	return nil
}

func (p *OSS) Keys(ctx context.Context) ([]string, error) {
	if p.Bucket == nil {
		if err := p.GetBucket(""); err != nil {
			return nil, errors.Wrap(err, "aliyun_oss")
		}
	}

	prefix := ""
	if p.Config.Prefix != "" {
		prefix = p.Config.Prefix + "/"
	}

	var keys []string
	token := ""
	for {
		result, err := p.Bucket.ListObjectsV2(oss.Prefix(prefix), oss.ContinuationToken(token))
		if err != nil {
			return nil, errors.Wrap(err, "aliyun_oss")
		}
		for _, object := range result.Objects {
			keys = append(keys, strings.TrimPrefix(object.Key, prefix))
		}
		if !result.IsTruncated {
			break
		}
		token = result.NextContinuationToken
	}
	return keys, nil
}
