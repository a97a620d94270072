// Package config lê a configuração do processo (variáveis de ambiente e flags)
// via viper e valida os valores.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"request-guard/middleware/guard/domain"

	"github.com/spf13/viper"
)

// Chaves planas: com AutomaticEnv, "guard_window" é lida de GUARD_WINDOW.
const (
	KeyAppEnv      = "app_env"
	KeyLogLevel    = "log_level"
	KeyListenAddr  = "listen_addr"
	KeyUpstreamURL = "upstream_url"

	KeyWindow           = "guard_window"
	KeyMaxRequests      = "guard_max_requests"
	KeySweepProbability = "guard_sweep_probability"
	KeyJanitorEvery     = "guard_janitor_every"
	KeyRateHeaders      = "guard_rate_headers"
	KeyKeyHeader        = "guard_key_header"
	KeyUseRemoteAddr    = "guard_use_remote_addr"
	KeyMaxInflight      = "guard_max_inflight"
	KeyInflightWait     = "guard_inflight_wait"

	KeyStore         = "guard_store"
	KeyRedisAddr     = "guard_redis_addr"
	KeyRedisPassword = "guard_redis_password"
	KeyRedisDB       = "guard_redis_db"
	KeyRedisPrefix   = "guard_redis_prefix"

	KeyStats          = "guard_stats"
	KeyStatsPrefix    = "guard_stats_prefix"
	KeyStatsTTL       = "guard_stats_ttl"
	KeyStatsBucket    = "guard_stats_bucket"
	KeyStatsTrackKeys = "guard_stats_track_keys"
)

type Config struct {
	Mode        domain.Mode
	LogLevel    string
	ListenAddr  string
	UpstreamURL string

	Window           time.Duration
	MaxRequests      int
	SweepProbability float64
	JanitorEvery     time.Duration
	RateHeaders      bool
	KeyHeader        string
	UseRemoteAddr    bool
	MaxInflight      int
	InflightWait     time.Duration

	Store         string // memory | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	Stats          string // none | memory | redis | prometheus
	StatsPrefix    string
	StatsTTL       time.Duration
	StatsBucket    string
	StatsTrackKeys bool
}

// NeedsRedis informa se algum componente configurado usa Redis.
func (c Config) NeedsRedis() bool {
	return c.Store == "redis" || c.Stats == "redis"
}

// New cria um viper com defaults e leitura automática do ambiente.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAppEnv, "production")
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyUpstreamURL, "")

	v.SetDefault(KeyWindow, 60*time.Second)
	v.SetDefault(KeyMaxRequests, 100)
	v.SetDefault(KeySweepProbability, 0.01)
	v.SetDefault(KeyJanitorEvery, time.Duration(0))
	v.SetDefault(KeyRateHeaders, false)
	v.SetDefault(KeyKeyHeader, "")
	v.SetDefault(KeyUseRemoteAddr, false)
	v.SetDefault(KeyMaxInflight, 0)
	v.SetDefault(KeyInflightWait, time.Duration(0))

	v.SetDefault(KeyStore, "memory")
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisPrefix, "guard:window")

	v.SetDefault(KeyStats, "none")
	v.SetDefault(KeyStatsPrefix, "guard:stats")
	v.SetDefault(KeyStatsTTL, 24*time.Hour)
	v.SetDefault(KeyStatsBucket, "minute")
	v.SetDefault(KeyStatsTrackKeys, false)
}

// Load lê e valida. Erros de validação citam a variável de ambiente.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Mode:        domain.ParseMode(v.GetString(KeyAppEnv)),
		LogLevel:    strings.TrimSpace(v.GetString(KeyLogLevel)),
		ListenAddr:  v.GetString(KeyListenAddr),
		UpstreamURL: strings.TrimSpace(v.GetString(KeyUpstreamURL)),

		Window:           v.GetDuration(KeyWindow),
		MaxRequests:      v.GetInt(KeyMaxRequests),
		SweepProbability: v.GetFloat64(KeySweepProbability),
		JanitorEvery:     v.GetDuration(KeyJanitorEvery),
		RateHeaders:      v.GetBool(KeyRateHeaders),
		KeyHeader:        strings.TrimSpace(v.GetString(KeyKeyHeader)),
		UseRemoteAddr:    v.GetBool(KeyUseRemoteAddr),
		MaxInflight:      v.GetInt(KeyMaxInflight),
		InflightWait:     v.GetDuration(KeyInflightWait),

		Store:         strings.ToLower(strings.TrimSpace(v.GetString(KeyStore))),
		RedisAddr:     strings.TrimSpace(v.GetString(KeyRedisAddr)),
		RedisPassword: v.GetString(KeyRedisPassword),
		RedisDB:       v.GetInt(KeyRedisDB),
		RedisPrefix:   v.GetString(KeyRedisPrefix),

		Stats:          strings.ToLower(strings.TrimSpace(v.GetString(KeyStats))),
		StatsPrefix:    v.GetString(KeyStatsPrefix),
		StatsTTL:       v.GetDuration(KeyStatsTTL),
		StatsBucket:    v.GetString(KeyStatsBucket),
		StatsTrackKeys: v.GetBool(KeyStatsTrackKeys),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Window <= 0 {
		return errors.New("GUARD_WINDOW must be > 0")
	}
	if c.MaxRequests <= 0 {
		return errors.New("GUARD_MAX_REQUESTS must be > 0")
	}
	if c.SweepProbability > 1 {
		return errors.New("GUARD_SWEEP_PROBABILITY must be <= 1")
	}
	if c.MaxInflight < 0 {
		return errors.New("GUARD_MAX_INFLIGHT must be >= 0")
	}
	switch c.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("GUARD_STORE must be memory or redis, got %q", c.Store)
	}
	switch c.Stats {
	case "none", "memory", "redis", "prometheus":
	default:
		return fmt.Errorf("GUARD_STATS must be none, memory, redis or prometheus, got %q", c.Stats)
	}
	if c.NeedsRedis() && c.RedisAddr == "" {
		return errors.New("GUARD_REDIS_ADDR is required when GUARD_STORE or GUARD_STATS is redis")
	}
	return nil
}

// ValidateUpstream é exigida só pelo modo proxy.
func (c Config) ValidateUpstream() (*url.URL, error) {
	if c.UpstreamURL == "" {
		return nil, errors.New("UPSTREAM_URL is required")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid UPSTREAM_URL %q", c.UpstreamURL)
	}
	return u, nil
}
