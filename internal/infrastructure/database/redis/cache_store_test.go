package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/vigiajus/vigiajus/pkg/errors"
	ptypes "github.com/vigiajus/vigiajus/pkg/types/process"
)

func mockStore(t *testing.T) (*CacheStore, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return newCacheStore(db, "test:", nil), mock
}

func storedResult() *ptypes.ProcessQueryResult {
	return &ptypes.ProcessQueryResult{
		Status:      ptypes.QuerySuccess,
		ContentHash: "abc123",
		Movements: []ptypes.Movement{
			{Title: "Juntada de petição", Date: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		},
	}
}

func TestCacheStoreGetHit(t *testing.T) {
	store, mock := mockStore(t)
	want := storedResult()
	data, _ := json.Marshal(want)
	mock.ExpectGet("test:8.26:00000014520248260001").SetVal(string(data))

	got, err := store.Get(context.Background(), "8.26:00000014520248260001")
	require.NoError(t, err)
	assert.Equal(t, want.ContentHash, got.ContentHash)
	assert.Len(t, got.Movements, 1)
}

func TestCacheStoreGetMiss(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectGet("test:missing").RedisNil()

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound))
}

func TestCacheStoreGetCorruptEntryIsDropped(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectGet("test:bad").SetVal("{not json")
	mock.ExpectDel("test:bad").SetVal(1)

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func TestCacheStoreSet(t *testing.T) {
	store, mock := mockStore(t)
	result := storedResult()
	data, _ := json.Marshal(result)
	mock.ExpectSet("test:key", data, 30*time.Minute).SetVal("OK")

	err := store.Set(context.Background(), "key", result, 30*time.Minute)
	require.NoError(t, err)
}

func TestCacheStoreDelete(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectDel("test:key").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), "key"))
}

func TestCacheStoreDeleteExpiredIsNoop(t *testing.T) {
	store, _ := mockStore(t)

	removed, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
