package main

import (
	"request-guard/internal/config"
	"request-guard/internal/httpapi"
	"request-guard/internal/projects"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the projects API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			h := httpapi.NewRouter(httpapi.Options{
				Guard:    rt.guard,
				Projects: projects.NewService(projects.NewMemoryRepository()),
				Logger:   rt.logger,
				Metrics:  rt.metrics,
			})

			rt.logger.Info("projects api listening", zap.String("addr", cfg.ListenAddr))
			return rt.listen(h)
		},
	}
}
