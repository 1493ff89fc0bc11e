package tenant

import "github.com/prometheus/client_golang/prometheus"

var (
	tenantInitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raggate_tenant_inits_total",
			Help: "Total number of tenant engine initializations by result.",
		},
		[]string{"result"},
	)

	activeTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "raggate_active_tenants",
			Help: "Number of live tenant engine instances.",
		},
	)
)

func init() {
	prometheus.MustRegister(tenantInitsTotal)
	prometheus.MustRegister(activeTenants)
}
