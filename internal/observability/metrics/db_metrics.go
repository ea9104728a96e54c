package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "devices_total",
			Help: "Registered devices",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM devices")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "devices_unassigned",
			Help: "Devices with no owner",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM devices WHERE owner_id IS NULL")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "user_profiles_total",
			Help: "Registered user profiles",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM user_profiles")
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
