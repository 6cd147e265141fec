package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceWithoutClient(t *testing.T) {
	c := NewCacheServiceFromClient(nil)
	ctx := context.Background()

	assert.False(t, c.Available())
	var dest string
	assert.Equal(t, redis.Nil, c.Get(ctx, "k", &dest))
	assert.NoError(t, c.Set(ctx, "k", "v", time.Second))
	assert.NoError(t, c.Publish(ctx, SnapshotChannel, "v"))
	assert.Nil(t, c.Subscribe(ctx, SnapshotChannel))
	assert.NoError(t, c.Close())
}

func TestCacheServiceRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCacheServiceFromClient(db)
	ctx := context.Background()

	mock.ExpectSet("rules:active", []byte(`{"count":2}`), time.Minute).SetVal("OK")
	mock.ExpectGet("rules:active").SetVal(`{"count":2}`)
	mock.ExpectGet("rules:missing").RedisNil()
	mock.ExpectPublish(SnapshotChannel, []byte(`{"orderId":1}`)).SetVal(1)

	require.NoError(t, c.Set(ctx, "rules:active", map[string]int{"count": 2}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "rules:active", &got))
	assert.Equal(t, 2, got["count"])

	assert.Equal(t, redis.Nil, c.Get(ctx, "rules:missing", &got))
	require.NoError(t, c.Publish(ctx, SnapshotChannel, map[string]int{"orderId": 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedMissLoadsAndStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCacheServiceFromClient(db)

	mock.ExpectGet("codes").RedisNil()
	mock.ExpectSet("codes", []byte(`["CUT-JAM","WELD-ARC"]`), time.Minute).SetVal("OK")

	calls := 0
	got, err := Cached(context.Background(), c, "codes", time.Minute, func(context.Context) ([]string, error) {
		calls++
		return []string{"CUT-JAM", "WELD-ARC"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CUT-JAM", "WELD-ARC"}, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedHitSkipsLoad(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCacheServiceFromClient(db)

	mock.ExpectGet("codes").SetVal(`["PAINT-RUN"]`)

	got, err := Cached(context.Background(), c, "codes", time.Minute, func(context.Context) ([]string, error) {
		t.Fatal("load called on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PAINT-RUN"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRedisErrorsDoNotFailRead(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCacheServiceFromClient(db)

	mock.ExpectGet("codes").SetErr(errors.New("connection reset"))
	mock.ExpectSet("codes", []byte(`["A"]`), time.Minute).SetErr(errors.New("connection reset"))

	got, err := Cached(context.Background(), c, "codes", time.Minute, func(context.Context) ([]string, error) {
		return []string{"A"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)
}

func TestCachedLoadError(t *testing.T) {
	c := NewCacheServiceFromClient(nil)
	loadErr := errors.New("db down")

	_, err := Cached(context.Background(), c, "codes", time.Minute, func(context.Context) ([]string, error) {
		return nil, loadErr
	})
	assert.ErrorIs(t, err, loadErr)
}
