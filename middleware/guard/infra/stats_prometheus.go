package infra

import (
	"context"

	"request-guard/middleware/guard/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStatsStore exporta as decisões do guard como contador.
// Só usa labels de baixa cardinalidade (outcome, code); chave e path ficam de fora.
type PrometheusStatsStore struct {
	requests *prometheus.CounterVec
}

// NewPrometheusStatsStore registra os coletores em reg. Se reg for nil usa
// prometheus.DefaultRegisterer.
func NewPrometheusStatsStore(reg prometheus.Registerer) *PrometheusStatsStore {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusStatsStore{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "guard_requests_total",
				Help: "Requests seen by the request guard, by outcome and error code",
			},
			[]string{"outcome", "code"},
		),
	}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.requests.WithLabelValues(string(ev.Outcome), string(ev.Code)).Inc()
	return nil
}
