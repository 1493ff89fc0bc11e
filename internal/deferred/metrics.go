package deferred

import "github.com/prometheus/client_golang/prometheus"

var deferredTasksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "raggate_deferred_tasks_total",
		Help: "Total number of deferred tasks executed by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(deferredTasksTotal)
}
