// Package minio archives raw tribunal query snapshots in object storage
// for audit and reprocessing.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

// objectAPI is the slice of the MinIO client the archive uses.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// minioAdapter narrows *minio.Client to objectAPI.
type minioAdapter struct{ c *minio.Client }

func (a minioAdapter) PutObject(ctx context.Context, bucket, name string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.c.PutObject(ctx, bucket, name, reader, size, opts)
}

func (a minioAdapter) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.c.BucketExists(ctx, bucket)
}

func (a minioAdapter) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return a.c.MakeBucket(ctx, bucket, opts)
}

// Archive stores one JSON object per query snapshot, keyed by tribunal and
// query date:
//
//	snapshots/<tribunal>/<yyyy>/<mm>/<dd>/<clean-digits>-<hhmmss>.json
type Archive struct {
	api    objectAPI
	bucket string
	clk    clock.Clock
	logger logging.Logger
}

// NewArchive connects to MinIO and makes sure the bucket exists.
func NewArchive(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*Archive, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArchiveError, "falha ao criar cliente minio")
	}

	a := &Archive{api: minioAdapter{c: client}, bucket: cfg.Bucket, clk: clock.System(), logger: logger}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("snapshot archive ready",
		logging.String("endpoint", cfg.Endpoint), logging.String("bucket", cfg.Bucket))
	return a, nil
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	exists, err := a.api.BucketExists(ctx, a.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeArchiveError, "falha ao verificar bucket")
	}
	if exists {
		return nil
	}
	if err := a.api.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeArchiveError, "falha ao criar bucket")
	}
	return nil
}

// Archive stores the raw result of one query.  The key argument is the
// cache key form "<tribunal>:<clean-digits>".
func (a *Archive) Archive(ctx context.Context, key string, result *ptypes.ProcessQueryResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "falha ao serializar snapshot")
	}

	name := a.objectName(key, result.QueriedAt)
	_, err = a.api.PutObject(ctx, a.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		a.logger.Warn("snapshot archive failed", logging.String("object", name), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeArchiveError, "falha ao arquivar snapshot")
	}
	return nil
}

func (a *Archive) objectName(key string, queriedAt time.Time) string {
	tribunal, digits := key, ""
	if i := strings.IndexByte(key, ':'); i >= 0 {
		tribunal, digits = key[:i], key[i+1:]
	}
	if queriedAt.IsZero() {
		queriedAt = a.clk.Now()
	}
	queriedAt = queriedAt.UTC()
	return fmt.Sprintf("snapshots/%s/%s/%s-%s.json",
		tribunal, queriedAt.Format("2006/01/02"), digits, queriedAt.Format("150405"))
}
