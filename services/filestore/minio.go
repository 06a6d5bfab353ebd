package filesvc

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core"
)

type minioStore struct {
	client *minio.Client
	bucket string
}

var _ core.FileStore = (*minioStore)(nil)

// NewMinioStore connects to the object store and ensures the configured
// bucket exists.
func NewMinioStore(conf *core.Config) (*minioStore, error) {
	client, err := minio.New(conf.Store.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.Store.AccessKey, conf.Store.SecretKey, ""),
		Secure: conf.Store.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating object store client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, conf.Store.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "checking bucket")
	}
	if !exists {
		if err = client.MakeBucket(ctx, conf.Store.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "creating bucket")
		}
	}

	return &minioStore{client: client, bucket: conf.Store.Bucket}, nil
}

func (s *minioStore) Put(ctx context.Context, key, contentType string, data io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{ContentType: contentType})
	return errors.Wrap(err, "storing file")
}

func (s *minioStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, errors.Wrap(err, "fetching file")
	}
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, errors.Wrap(err, "fetching file")
	}
	return obj, stat.Size, nil
}

func (s *minioStore) Delete(ctx context.Context, key string) error {
	return errors.Wrap(s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}), "deleting file")
}
