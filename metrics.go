package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/zalando-incubator/ec2-lb-stack/aws"
)

const (
	resultSuccess = "success"
	resultNoop    = "noop"
	resultError   = "error"
)

type metrics struct {
	registry          *prometheus.Registry
	operationsTotal   *prometheus.CounterVec
	lastWaitDuration  prometheus.Gauge
	unhealthyTargets  prometheus.Gauge
	lastSyncTimestamp prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ec2_lb_stack",
				Subsystem: "stack",
				Name:      "operations_total",
				Help:      "Number of Cloud Formation stack operations by result",
			},
			[]string{"operation", "result"},
		),
		lastWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ec2_lb_stack",
				Subsystem: "stack",
				Name:      "last_wait_duration_seconds",
				Help:      "Time spent waiting for the last stack operation to finish",
			},
		),
		unhealthyTargets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ec2_lb_stack",
				Subsystem: "target_group",
				Name:      "unhealthy_targets",
				Help:      "Number of targets not reported healthy by the load balancer",
			},
		),
		lastSyncTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ec2_lb_stack",
				Subsystem: "stack",
				Name:      "last_success_timestamp_seconds",
				Help:      "Timestamp of the last successful stack operation",
			},
		),
	}
	m.registry.MustRegister(
		m.operationsTotal,
		m.lastWaitDuration,
		m.unhealthyTargets,
		m.lastSyncTimestamp,
		collectors.NewGoCollector(),
	)
	return m
}

// observe counts one operation. ErrNoUpdateNeeded counts as noop.
func (m *metrics) observe(operation string, err error) {
	result := resultSuccess
	switch {
	case errors.Is(err, aws.ErrNoUpdateNeeded):
		result = resultNoop
	case err != nil:
		result = resultError
	}
	m.operationsTotal.WithLabelValues(operation, result).Inc()
	if result != resultError {
		m.lastSyncTimestamp.SetToCurrentTime()
	}
}

func (m *metrics) waited(d time.Duration) {
	m.lastWaitDuration.Set(d.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) serve(address string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())
	log.Infof("serving metrics on %s", address)
	log.Fatal(http.ListenAndServe(address, mux))
}
