package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MountCollector bundles Prometheus metrics for the mount link and the
// alignment advisor. All record methods tolerate a nil receiver so wiring
// metrics stays optional in tests and tools.
type MountCollector struct {
	gatherer prometheus.Gatherer

	Commands         *prometheus.CounterVec
	CommandDurations *prometheus.HistogramVec
	Reconnects       prometheus.Counter
	LinkUp           prometheus.Gauge
	Suggestions      *prometheus.CounterVec
}

// NewMountCollector registers mount metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewMountCollector(reg prometheus.Registerer) (*MountCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mount_commands_total",
		Help: "Total protocol commands issued, labeled by opcode and outcome.",
	}, []string{"op", "status"})
	commands, err := registerCounterVec(reg, commands, "mount_commands_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mount_command_duration_seconds",
		Help:    "Protocol command round-trip latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"op"})
	durations, err = registerHistogramVec(reg, durations, "mount_command_duration_seconds")
	if err != nil {
		return nil, err
	}

	reconnects, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mount_reconnects_total",
		Help: "Total transport reopen attempts after a faulted link.",
	}), "mount_reconnects_total")
	if err != nil {
		return nil, err
	}

	linkUp, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mount_link_up",
		Help: "1 while the mount link is open, 0 otherwise.",
	}), "mount_link_up")
	if err != nil {
		return nil, err
	}

	suggestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alignment_suggestions_total",
		Help: "Alignment suggestion runs, labeled by mode (triple or pair).",
	}, []string{"mode"})
	suggestions, err = registerCounterVec(reg, suggestions, "alignment_suggestions_total")
	if err != nil {
		return nil, err
	}

	return &MountCollector{
		gatherer:         gatherer,
		Commands:         commands,
		CommandDurations: durations,
		Reconnects:       reconnects,
		LinkUp:           linkUp,
		Suggestions:      suggestions,
	}, nil
}

// RecordCommand records one protocol exchange.
func (c *MountCollector) RecordCommand(op, status string, seconds float64) {
	if c == nil {
		return
	}
	if c.Commands != nil {
		c.Commands.WithLabelValues(op, status).Inc()
	}
	if c.CommandDurations != nil {
		c.CommandDurations.WithLabelValues(op).Observe(seconds)
	}
}

// RecordReconnect counts a reopen attempt on a faulted link.
func (c *MountCollector) RecordReconnect() {
	if c == nil || c.Reconnects == nil {
		return
	}
	c.Reconnects.Inc()
}

// SetLinkUp drives the link-state gauge.
func (c *MountCollector) SetLinkUp(up bool) {
	if c == nil || c.LinkUp == nil {
		return
	}
	if up {
		c.LinkUp.Set(1)
	} else {
		c.LinkUp.Set(0)
	}
}

// RecordSuggestion counts one advisor run.
func (c *MountCollector) RecordSuggestion(mode string) {
	if c == nil || c.Suggestions == nil {
		return
	}
	c.Suggestions.WithLabelValues(mode).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MountCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
