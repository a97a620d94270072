package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestRedisWindowStore_HitCountsAndSetsTTLOnce(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisWindowStore(rdb, WithWindowPrefix("test:win:"))
	now := time.Unix(1000, 0)

	w1, err := s.Hit(context.Background(), "1.2.3.4:projects:get", now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, w1.Count)
	assert.Equal(t, now.Add(time.Minute), w1.ResetAt)

	w2, err := s.Hit(context.Background(), "1.2.3.4:projects:get", now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, w2.Count)

	assert.True(t, mr.Exists("test:win:1.2.3.4:projects:get"))
	assert.Equal(t, time.Minute, mr.TTL("test:win:1.2.3.4:projects:get"))
}

func TestRedisWindowStore_WindowExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	now := time.Unix(1000, 0)

	_, err := s.Hit(context.Background(), "k", now, time.Minute)
	require.NoError(t, err)
	_, err = s.Hit(context.Background(), "k", now, time.Minute)
	require.NoError(t, err)

	mr.FastForward(time.Minute)

	w, err := s.Hit(context.Background(), "k", now.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Count)
}

func TestRedisWindowStore_ErrorWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := NewRedisWindowStore(rdb)
	mr.Close()

	_, err := s.Hit(context.Background(), "k", time.Now(), time.Minute)
	assert.Error(t, err)
}
