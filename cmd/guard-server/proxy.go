package main

import (
	"request-guard/internal/config"
	"request-guard/internal/gateway"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newProxyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Guard a single upstream as a reverse proxy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			target, err := cfg.ValidateUpstream()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			r := mux.NewRouter()
			if rt.metrics != nil {
				r.Handle("/metrics", rt.metrics)
			}
			r.PathPrefix("/").Handler(gateway.New(target, rt.guard, rt.logger))

			rt.logger.Info("gateway listening",
				zap.String("addr", cfg.ListenAddr), zap.String("upstream", target.String()))
			return rt.listen(r)
		},
	}

	cmd.Flags().String("upstream", "", "upstream base URL (UPSTREAM_URL)")
	_ = v.BindPFlag(config.KeyUpstreamURL, cmd.Flags().Lookup("upstream"))
	return cmd
}
