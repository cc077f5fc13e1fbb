package cloudflare_r2

import (
	"context"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

func (p *R2) Get(ctx context.Context, key string) (string, error) {
	output, err := p.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(p.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", errors.Wrap(fs.ErrNotExist, "cloudflare_r2")
		}
		return "", errors.Wrap(err, "cloudflare_r2")
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return "", errors.Wrap(err, "cloudflare_r2")
	}
	return string(content), nil
}

func (p *R2) Set(ctx context.Context, key string, value string) error {
	_, err := p.S3Manager.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.Config.BucketName),
		Key:         aws.String(p.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "cloudflare_r2")
	}
	return nil
}

func (p *R2) Keys(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.Config.BucketName),
	}
	prefix := p.objectKey("")
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(p.S3Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "cloudflare_r2")
		}
		for _, object := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(object.Key), prefix))
		}
	}
	return keys, nil
}
