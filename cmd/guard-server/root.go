package main

import (
	"time"

	"request-guard/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "guard-server",
		Short:         "HTTP server protected by rate limiting, origin checks and error sanitization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("env", "production", "execution mode: production, development or test (APP_ENV)")
	flags.String("log-level", "", "zap log level (LOG_LEVEL)")
	flags.String("listen", ":8080", "listen address (LISTEN_ADDR)")
	flags.Duration("window", 60*time.Second, "rate limit window (GUARD_WINDOW)")
	flags.Int("max-requests", 100, "requests allowed per window (GUARD_MAX_REQUESTS)")
	flags.String("store", "memory", "window store: memory or redis (GUARD_STORE)")
	flags.String("stats", "none", "stats backend: none, memory, redis or prometheus (GUARD_STATS)")
	flags.String("redis-addr", "", "redis address (GUARD_REDIS_ADDR)")
	flags.Bool("rate-headers", false, "send X-RateLimit-* headers (GUARD_RATE_HEADERS)")

	bindFlags(v, root, map[string]string{
		"env":          config.KeyAppEnv,
		"log-level":    config.KeyLogLevel,
		"listen":       config.KeyListenAddr,
		"window":       config.KeyWindow,
		"max-requests": config.KeyMaxRequests,
		"store":        config.KeyStore,
		"stats":        config.KeyStats,
		"redis-addr":   config.KeyRedisAddr,
		"rate-headers": config.KeyRateHeaders,
	})

	root.AddCommand(newServeCmd(v), newProxyCmd(v))
	return root
}

// bindFlags liga cada flag à chave do viper. Flag não informada cai no
// ambiente e depois no default do config.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}
