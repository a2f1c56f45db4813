package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "active_vessels",
			Help: "Vessels registered and active",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM vessel_register_table WHERE is_active = TRUE")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "filtered_rows_last_hour",
			Help: "Rejected signal rows written in the last hour",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM filtered_raw WHERE created_at >= NOW() - INTERVAL '1 hour'")
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
