package influxdb

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/vtx-control-core/internal/drivers/simvtx"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/config"
	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// fakeWriter captures points as line protocol.
type fakeWriter struct {
	mu      sync.Mutex
	lines   []string
	flushes int
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, strings.TrimSpace(write.PointToLineProtocol(p, time.Second)))
}

func (w *fakeWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
}

func newTestClient() (*Client, *fakeWriter) {
	w := &fakeWriter{}
	c := newClient(w, config.InfluxDBConfig{Enabled: true}, "quad-7")
	c.now = func() time.Time { return time.Unix(1_760_000_000, 0) }
	return c, w
}

func TestWriteCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  vtx.Command
		want string
	}{
		{
			name: "band channel",
			cmd:  vtx.Command{Op: vtx.OpSetBandChannel, Band: 4, Channel: 2},
			want: "vtx_command,device_id=quad-7,op=set_band_channel band=4i,channel=2i 1760000000",
		},
		{
			name: "frequency",
			cmd:  vtx.Command{Op: vtx.OpSetFrequency, FrequencyMHz: 5800},
			want: "vtx_command,device_id=quad-7,op=set_frequency freq_mhz=5800i 1760000000",
		},
		{
			name: "power",
			cmd:  vtx.Command{Op: vtx.OpSetPowerIndex, PowerIndex: 3},
			want: "vtx_command,device_id=quad-7,op=set_power_index power_index=3i 1760000000",
		},
		{
			name: "pit",
			cmd:  vtx.Command{Op: vtx.OpSetPitMode, PitMode: true},
			want: "vtx_command,device_id=quad-7,op=set_pit_mode pit=true 1760000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestClient()
			c.WriteCommand(tt.cmd)

			if len(w.lines) != 1 || w.lines[0] != tt.want {
				t.Errorf("lines = %q, want %q", w.lines, tt.want)
			}
		})
	}
}

func TestWriteCommand_UnknownOpDropped(t *testing.T) {
	c, w := newTestClient()
	c.WriteCommand(vtx.Command{Op: "reboot"})

	if len(w.lines) != 0 {
		t.Errorf("lines = %q, want none", w.lines)
	}
}

func TestWritePowerTransition(t *testing.T) {
	c, w := newTestClient()
	c.PowerStateChanged(vtx.PowerArmDelay, vtx.PowerArmed, 3_000_001)

	want := "vtx_power_transition,device_id=quad-7,from=arm_delay,to=armed now_us=3000001i,state=2i 1760000000"
	if len(w.lines) != 1 || w.lines[0] != want {
		t.Errorf("lines = %q, want %q", w.lines, want)
	}
}

func TestWriteState(t *testing.T) {
	c, w := newTestClient()

	opts := simvtx.DefaultOptions()
	opts.NoPitMode = true
	dev, _ := simvtx.Build(opts)
	reg := vtx.NewRegistry()
	reg.Register(dev)
	sched := vtx.NewScheduler(reg, vtx.NewSettingsStore(vtx.DefaultSettings()), &vtx.ArmFlag{})

	c.WriteState(sched.Status(), reg, false)

	if len(w.lines) != 1 {
		t.Fatalf("lines = %q, want one", w.lines)
	}
	line := w.lines[0]
	for _, want := range []string{"vtx_state,device_id=quad-7,device_type=smartaudio", "band=1i", "channel=1i", "freq_mhz=5865i", "power_index=0i", "registered=true", "armed=false"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "pit=") {
		t.Errorf("line %q reports unsupported pit mode", line)
	}
}

func TestWrite_AfterCloseDropped(t *testing.T) {
	c, w := newTestClient()
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, want 1 on close", w.flushes)
	}

	c.CommandIssued(vtx.Command{Op: vtx.OpSetPowerIndex})
	c.Flush()

	if len(w.lines) != 0 {
		t.Errorf("lines = %q after close", w.lines)
	}
	if w.flushes != 1 {
		t.Errorf("flushes = %d, Flush after Close must be a no-op", w.flushes)
	}
}

func TestWriteErrorsWrapped(t *testing.T) {
	c, _ := newTestClient()

	got := make(chan error, 1)
	c.SetOnError(func(err error) { got <- err })

	errs := make(chan error, 1)
	errs <- errors.New("batch rejected")
	close(errs)
	c.handleWriteErrors(errs)

	err := <-got
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("error = %v, want wrapped ErrWriteFailed", err)
	}
}
