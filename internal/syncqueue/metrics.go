package syncqueue

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	succeeded *prometheus.CounterVec
	retried   *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		succeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feira",
			Subsystem: "sync",
			Name:      "jobs_succeeded_total",
			Help:      "Sync jobs that completed.",
		}, []string{"kind"}),
		retried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feira",
			Subsystem: "sync",
			Name:      "job_retries_total",
			Help:      "Failed attempts that were retried.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "feira",
			Subsystem: "sync",
			Name:      "jobs_failed_total",
			Help:      "Sync jobs abandoned after exhausting retries or on a permanent error.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []**prometheus.CounterVec{&m.succeeded, &m.retried, &m.failed} {
		if err := reg.Register(*c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			*c = existing
		}
	}
	return m, nil
}
