package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"pairwatch-telegram-bot/internal/database"
)

var (
	cyclesRun = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pairwatch",
		Subsystem: "monitor",
		Name:      "cycles_run",
		Help:      "The total number of monitoring cycles executed",
	})
	alertsTriggered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pairwatch",
		Subsystem: "monitor",
		Name:      "alerts_triggered",
		Help:      "The total number of alerts that fired and were retired",
	})
	lookupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pairwatch",
		Subsystem: "monitor",
		Name:      "lookup_failures",
		Help:      "The total number of pair lookups that failed",
	})
	notificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pairwatch",
		Subsystem: "monitor",
		Name:      "notification_failures",
		Help:      "The total number of trigger notifications that could not be delivered",
	})
	activeAlerts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pairwatch",
		Subsystem: "monitor",
		Name:      "active_alerts",
		Help:      "The current number of pending alerts",
	})
)

func init() {
	prometheus.MustRegister(cyclesRun)
	prometheus.MustRegister(alertsTriggered)
	prometheus.MustRegister(lookupFailures)
	prometheus.MustRegister(notificationFailures)
	prometheus.MustRegister(activeAlerts)
}

var persistedCounters = map[string]prometheus.Counter{
	"cycles_run":            cyclesRun,
	"alerts_triggered":      alertsTriggered,
	"lookup_failures":       lookupFailures,
	"notification_failures": notificationFailures,
}

// LoadMetricsFromDB restores counter values persisted by a previous run.
func LoadMetricsFromDB() {
	for name, counter := range persistedCounters {
		value, err := database.GetMetric(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}
	log.Println("Monitor metrics loaded from database.")
}

// SaveMetricsToDB writes current counter values to the database.
func SaveMetricsToDB() {
	for name, counter := range persistedCounters {
		if err := database.SaveMetric(name, counterValue(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}
	log.Println("Monitor metrics saved to database.")
}

func counterValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	return 0
}
