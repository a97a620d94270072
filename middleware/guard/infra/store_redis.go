package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"request-guard/middleware/guard/domain"

	"github.com/redis/go-redis/v9"
)

// Keys: [1] chave da janela
// Args: [1] tamanho da janela em ms
// Retorna {count, pttl_ms}. O TTL só é aplicado no primeiro hit da janela
// (ou se a chave ficou sem TTL por algum motivo).
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisWindowStore guarda as janelas em Redis, compartilhadas entre réplicas.
// A expiração é do próprio Redis, então não implementa domain.Sweeper.
type RedisWindowStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisWindowStore(rdb redis.UniversalClient, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{
		rdb:    rdb,
		prefix: "guard:window",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implementa domain.WindowStore. ResetAt é aproximado pelo relógio local
// somado ao PTTL devolvido pelo Redis.
func (s *RedisWindowStore) Hit(ctx context.Context, key domain.Key, now time.Time, window time.Duration) (domain.Window, error) {
	ms := window.Milliseconds()
	if ms < 1 {
		ms = 1
	}

	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.prefix + ":" + string(key)}, ms).Int64Slice()
	if err != nil {
		return domain.Window{}, fmt.Errorf("redis window hit: %w", err)
	}
	if len(res) != 2 {
		return domain.Window{}, fmt.Errorf("redis window hit: unexpected reply %v", res)
	}

	return domain.Window{
		Count:   int(res[0]),
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
