package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterVersion registers a constant gauge exposing the application version.
func RegisterVersion(reg prometheus.Registerer, version string) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "version",
		Help:      "Application version.",
		ConstLabels: prometheus.Labels{
			"version": version,
		},
	})

	reg.MustRegister(g)
	g.Set(1)
}
