package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation result labels.
const (
	resultSuccess = "success"
	resultError   = "error"
)

// Prometheus metrics.
var (
	employeesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "employees_total",
			Help: "Number of employees currently stored",
		},
	)

	employeeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employee_operations_total",
			Help: "Total number of employee operations by result",
		},
		[]string{"operation", "result"},
	)

	benefitsCostPerPayPeriod = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "employee_benefits_cost_per_pay_period",
			Help:    "Benefits cost per pay period computed on create and update",
			Buckets: prometheus.LinearBuckets(20, 20, 10),
		},
	)
)

func observeOperation(operation string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	employeeOperationsTotal.WithLabelValues(operation, result).Inc()
}
