package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
	"github.com/vigiajus/vigiajus/pkg/clock"
	pkgerrors "github.com/vigiajus/vigiajus/pkg/errors"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	bucket  string
	exists  bool
	putErr  error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, bucket, name string, reader *bytes.Reader, size int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, _ := io.ReadAll(reader)
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[name] = data
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: size}, nil
}

func (f *fakeObjectAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.exists, nil
}

func (f *fakeObjectAPI) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.bucket = bucket
	f.exists = true
	return nil
}

func testArchive(api *fakeObjectAPI) *Archive {
	return &Archive{
		api:    api,
		bucket: "snapshots",
		clk:    clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		logger: logging.NewNopLogger(),
	}
}

func TestArchiveObjectLayout(t *testing.T) {
	api := &fakeObjectAPI{exists: true}
	a := testArchive(api)

	result := &ptypes.ProcessQueryResult{
		Status:    ptypes.QuerySuccess,
		QueriedAt: time.Date(2024, 6, 1, 14, 30, 5, 0, time.UTC),
	}
	require.NoError(t, a.Archive(context.Background(), "8.26:00000014520248260001", result))

	wantName := "snapshots/8.26/2024/06/01/00000014520248260001-143005.json"
	data, ok := api.objects[wantName]
	require.True(t, ok, "objects stored: %v", api.objects)

	var stored ptypes.ProcessQueryResult
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, ptypes.QuerySuccess, stored.Status)
}

func TestArchiveZeroQueryTimeUsesClock(t *testing.T) {
	api := &fakeObjectAPI{exists: true}
	a := testArchive(api)

	require.NoError(t, a.Archive(context.Background(), "8.19:123", &ptypes.ProcessQueryResult{}))

	_, ok := api.objects["snapshots/8.19/2024/06/01/123-120000.json"]
	assert.True(t, ok, "objects stored: %v", api.objects)
}

func TestArchivePutFailure(t *testing.T) {
	api := &fakeObjectAPI{exists: true, putErr: fmt.Errorf("connection reset")}
	a := testArchive(api)

	err := a.Archive(context.Background(), "8.26:1", &ptypes.ProcessQueryResult{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeArchiveError))
}

func TestEnsureBucketCreatesMissing(t *testing.T) {
	api := &fakeObjectAPI{exists: false}
	a := testArchive(api)

	require.NoError(t, a.ensureBucket(context.Background()))
	assert.Equal(t, "snapshots", api.bucket)
	require.NoError(t, a.ensureBucket(context.Background()))
}
