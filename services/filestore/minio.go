package filestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
)

// MinIOStorage stores uploads in an S3 compatible bucket and hands out presigned GET URLs.
type MinIOStorage struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
}

var _ core.FileStorage = (*MinIOStorage)(nil)

func NewMinIOStorage(ctx context.Context, conf *core.Config) (*MinIOStorage, error) {
	mc := conf.Storage.MinIO
	client, err := minio.New(mc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}

	exists, err := client.BucketExists(ctx, mc.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "checking bucket")
	}
	if !exists {
		if err = client.MakeBucket(ctx, mc.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "creating bucket")
		}
	}

	return &MinIOStorage{
		client: client,
		bucket: mc.Bucket,
		urlTTL: mc.PresignedURLTTL,
	}, nil
}

func objectName(name string) string {
	return "uploads/" + filepath.Base(name)
}

func (s *MinIOStorage) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName(name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrap(err, "uploading object")
	}
	return nil
}

func (s *MinIOStorage) URL(ctx context.Context, name string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(name)))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName(name), s.urlTTL, reqParams)
	if err != nil {
		return "", errors.Wrap(err, "generating presigned url")
	}
	return u.String(), nil
}

func (s *MinIOStorage) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName(name), minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, "removing object")
	}
	return nil
}
