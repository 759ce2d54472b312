package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/vtx-control-core/internal/drivers/simvtx"
	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

func newCollector(t *testing.T) (*VTXCollector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewVTXCollector(reg)
	if err != nil {
		t.Fatalf("NewVTXCollector: %v", err)
	}
	return c, reg
}

func TestVTXCollector_Commands(t *testing.T) {
	c, _ := newCollector(t)

	c.CommandIssued(vtx.Command{Op: vtx.OpSetPowerIndex, PowerIndex: 2})
	c.CommandIssued(vtx.Command{Op: vtx.OpSetPowerIndex, PowerIndex: 3})
	c.CommandIssued(vtx.Command{Op: vtx.OpSetBandChannel, Band: 1, Channel: 1})

	if got := testutil.ToFloat64(c.CommandsTotal.WithLabelValues("set_power_index")); got != 2 {
		t.Errorf("set_power_index = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.CommandsTotal.WithLabelValues("set_band_channel")); got != 1 {
		t.Errorf("set_band_channel = %v, want 1", got)
	}
}

func TestVTXCollector_PowerTransitions(t *testing.T) {
	c, _ := newCollector(t)

	c.PowerStateChanged(vtx.PowerDisarmed, vtx.PowerArmDelay, 0)
	c.PowerStateChanged(vtx.PowerArmDelay, vtx.PowerArmed, 3_000_001)

	if got := testutil.ToFloat64(c.PowerTransitionsTotal.WithLabelValues("arm_delay", "armed")); got != 1 {
		t.Errorf("arm_delay->armed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.PowerState); got != float64(vtx.PowerArmed) {
		t.Errorf("vtx_power_state = %v, want %v", got, float64(vtx.PowerArmed))
	}
}

func TestVTXCollector_WiredToScheduler(t *testing.T) {
	c, _ := newCollector(t)

	dev, _ := simvtx.Build(simvtx.DefaultOptions())
	reg := vtx.NewRegistry()
	reg.SetObserver(c)
	reg.Register(dev)

	sched := vtx.NewScheduler(reg, vtx.NewSettingsStore(vtx.Settings{Band: 4, Channel: 2, LoPower: 1, HiPower: 3}), &vtx.ArmFlag{})
	sched.SetObserver(c)

	sched.Process(vtx.CyclePeriodUs + 1)   // band/channel
	sched.Process(2*vtx.CyclePeriodUs + 2) // power

	if got := testutil.ToFloat64(c.CyclesTotal.WithLabelValues("band_channel", "true")); got != 1 {
		t.Errorf("band_channel cycles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CyclesTotal.WithLabelValues("power", "true")); got != 1 {
		t.Errorf("power cycles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CommandsTotal.WithLabelValues("set_band_channel")); got != 1 {
		t.Errorf("set_band_channel = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CommandsTotal.WithLabelValues("set_power_index")); got != 1 {
		t.Errorf("set_power_index = %v, want 1", got)
	}

	c.ObserveStatus(sched.Status())
	if got := testutil.ToFloat64(c.Registered); got != 1 {
		t.Errorf("vtx_device_registered = %v, want 1", got)
	}
}

func TestVTXCollector_ReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewVTXCollector(reg)
	if err != nil {
		t.Fatalf("first NewVTXCollector: %v", err)
	}
	second, err := NewVTXCollector(reg)
	if err != nil {
		t.Fatalf("second NewVTXCollector: %v", err)
	}

	first.CommandIssued(vtx.Command{Op: vtx.OpSetPitMode})
	if got := testutil.ToFloat64(second.CommandsTotal.WithLabelValues("set_pit_mode")); got != 1 {
		t.Errorf("shared counter = %v, want 1", got)
	}
}

func TestVTXCollector_NilSafe(t *testing.T) {
	var c *VTXCollector

	c.CommandIssued(vtx.Command{Op: vtx.OpSetPitMode})
	c.CycleCompleted(vtx.TaskPower, false)
	c.PowerStateChanged(vtx.PowerDisarmed, vtx.PowerArmDelay, 0)
	c.ObserveStatus(vtx.Status{})
	if c.Gatherer() != nil {
		t.Error("nil collector returned a gatherer")
	}
}

func TestVTXCollector_Handler(t *testing.T) {
	c, _ := newCollector(t)
	c.CommandIssued(vtx.Command{Op: vtx.OpSetFrequency, FrequencyMHz: 5800})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `vtx_commands_total{op="set_frequency"} 1`) {
		t.Errorf("metrics output missing command counter:\n%s", body)
	}
}
