package observability

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// VTXCollector exposes core metrics. A nil collector is a valid no-op.
type VTXCollector struct {
	gatherer prometheus.Gatherer

	CommandsTotal         *prometheus.CounterVec
	CyclesTotal           *prometheus.CounterVec
	PowerTransitionsTotal *prometheus.CounterVec
	PowerState            prometheus.Gauge
	Registered            prometheus.Gauge
}

var _ vtx.Observer = (*VTXCollector)(nil)

// NewVTXCollector registers VTX metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewVTXCollector(reg prometheus.Registerer) (*VTXCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vtx_commands_total",
		Help: "Set-operations dispatched to the transmitter, labeled by operation.",
	}, []string{"op"}), "vtx_commands_total")
	if err != nil {
		return nil, err
	}

	cycles, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vtx_cycles_total",
		Help: "Reconciliation cycles run, labeled by task and whether housekeeping followed.",
	}, []string{"task", "process_needed"}), "vtx_cycles_total")
	if err != nil {
		return nil, err
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vtx_power_transitions_total",
		Help: "Power state machine transitions.",
	}, []string{"from", "to"}), "vtx_power_transitions_total")
	if err != nil {
		return nil, err
	}

	powerState, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vtx_power_state",
		Help: "Current power state (0 disarmed, 1 arm delay, 2 armed).",
	}), "vtx_power_state")
	if err != nil {
		return nil, err
	}

	registered, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vtx_device_registered",
		Help: "1 when a transmitter is registered.",
	}), "vtx_device_registered")
	if err != nil {
		return nil, err
	}

	return &VTXCollector{
		gatherer:              gatherer,
		CommandsTotal:         commands,
		CyclesTotal:           cycles,
		PowerTransitionsTotal: transitions,
		PowerState:            powerState,
		Registered:            registered,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *VTXCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *VTXCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// CommandIssued implements vtx.Observer.
func (c *VTXCollector) CommandIssued(cmd vtx.Command) {
	if c == nil || c.CommandsTotal == nil {
		return
	}
	c.CommandsTotal.WithLabelValues(string(cmd.Op)).Inc()
}

// CycleCompleted implements vtx.Observer.
func (c *VTXCollector) CycleCompleted(task vtx.Task, processNeeded bool) {
	if c == nil || c.CyclesTotal == nil {
		return
	}
	c.CyclesTotal.WithLabelValues(task.String(), strconv.FormatBool(processNeeded)).Inc()
}

// PowerStateChanged implements vtx.Observer.
func (c *VTXCollector) PowerStateChanged(from, to vtx.PowerState, _ vtx.TimeUs) {
	if c == nil {
		return
	}
	if c.PowerTransitionsTotal != nil {
		c.PowerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	}
	if c.PowerState != nil {
		c.PowerState.Set(float64(to))
	}
}

// ObserveStatus refreshes the gauges from a scheduler snapshot.
func (c *VTXCollector) ObserveStatus(st vtx.Status) {
	if c == nil {
		return
	}
	if c.Registered != nil {
		registered := 0.0
		if st.Registered {
			registered = 1
		}
		c.Registered.Set(registered)
	}
	if c.PowerState != nil {
		c.PowerState.Set(float64(st.PowerState))
	}
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
