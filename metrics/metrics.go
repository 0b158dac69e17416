// metrics/metrics.go
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const namespace = "chatseed"

// Seed records what a seed run did. A nil *Seed is valid and records nothing,
// so callers that do not export metrics can skip it entirely.
type Seed struct {
	usersCreated    prometheus.Counter
	messagesCreated prometheus.Counter
	deleted         *prometheus.CounterVec
	lastDuration    prometheus.Gauge
	lastSuccess     prometheus.Gauge
	runs            *prometheus.CounterVec
}

// NewSeed builds the seed collectors and registers them with reg.
//
// Registration failures other than AlreadyRegisteredError are fatal: they
// indicate conflicting metric definitions. When a collector is already
// registered the existing one is reused.
func NewSeed(reg prometheus.Registerer, logger *zap.Logger) *Seed {
	m := &Seed{
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_created_total",
			Help:      "Users inserted by the seed runner.",
		}),
		messagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_created_total",
			Help:      "Messages inserted by the seed runner.",
		}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_deleted_total",
			Help:      "Documents removed while clearing collections.",
		}, []string{"collection"}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the most recent seed run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the most recent successful seed run.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Seed runs by outcome.",
		}, []string{"outcome"}),
	}

	m.usersCreated = register(reg, logger, "users_created_total", m.usersCreated)
	m.messagesCreated = register(reg, logger, "messages_created_total", m.messagesCreated)
	m.deleted = register(reg, logger, "documents_deleted_total", m.deleted)
	m.lastDuration = register(reg, logger, "last_run_duration_seconds", m.lastDuration)
	m.lastSuccess = register(reg, logger, "last_success_timestamp_seconds", m.lastSuccess)
	m.runs = register(reg, logger, "runs_total", m.runs)
	return m
}

// register attempts to register c. An AlreadyRegisteredError yields the
// existing collector; any other failure logs fatally (os.Exit) or panics
// when no logger is available.
func register[C prometheus.Collector](reg prometheus.Registerer, logger *zap.Logger, name string, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}

	if logger != nil {
		logger.Fatal("failed to register "+name, zap.Error(err))
	}
	panic("metrics: failed to register " + name + ": " + err.Error())
}

// UserCreated counts one inserted user. A nil *Seed records nothing.
func (m *Seed) UserCreated() {
	if m == nil {
		return
	}
	m.usersCreated.Inc()
}

// MessagesCreated counts n inserted messages.
func (m *Seed) MessagesCreated(n int) {
	if m == nil {
		return
	}
	m.messagesCreated.Add(float64(n))
}

// Deleted counts n documents removed from collection by the clear step.
func (m *Seed) Deleted(collection string, n int64) {
	if m == nil {
		return
	}
	m.deleted.WithLabelValues(collection).Add(float64(n))
}

// Finished records the outcome of a run that took d.
func (m *Seed) Finished(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.lastDuration.Set(d.Seconds())
	if err != nil {
		m.runs.WithLabelValues("failure").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
	m.lastSuccess.SetToCurrentTime()
}

// WriteTextfile writes every metric in g to path in the text exposition
// format, for pickup by node_exporter's textfile collector. The write is
// atomic (temp file + rename).
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
