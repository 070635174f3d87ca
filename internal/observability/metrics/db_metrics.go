package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "assignments_unpaid",
			Help: "Assignments currently in unpaid status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM student_fee_assignments WHERE status = 'unpaid'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "assignments_overpaid",
			Help: "Assignments currently in overpaid status",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM student_fee_assignments WHERE status = 'overpaid'")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
