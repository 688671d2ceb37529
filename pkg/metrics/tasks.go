package metrics

import "github.com/prometheus/client_golang/prometheus"

// TaskMetrics exposes gauges computed by the overdue-snapshot job.
type TaskMetrics struct {
	overdue *prometheus.GaugeVec
}

// NewTaskMetrics registers the task gauges on the provided registerer.
func NewTaskMetrics(reg prometheus.Registerer) *TaskMetrics {
	if reg == nil {
		return &TaskMetrics{}
	}
	overdue := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "upkeep_tasks_overdue",
		Help: "Pending tasks past their due date, by property status.",
	}, []string{"property_status"})
	reg.MustRegister(overdue)
	return &TaskMetrics{overdue: overdue}
}

// SetOverdue records the overdue count for a property status.
func (t *TaskMetrics) SetOverdue(propertyStatus string, count float64) {
	if t == nil || t.overdue == nil {
		return
	}
	t.overdue.WithLabelValues(propertyStatus).Set(count)
}
