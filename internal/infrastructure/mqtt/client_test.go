package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/vtx-control-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "vtxcore-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnectedClient returns a client that never connected.
func disconnectedClient() *Client {
	return &Client{
		cfg:           testConfig(),
		subscriptions: make(map[string]subscription),
	}
}

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"VTXState", topics.VTXState("quad-7"), "vtxcore/state/vtx/quad-7"},
		{"VTXCommand", topics.VTXCommand("quad-7"), "vtxcore/command/vtx/quad-7"},
		{"VTXSettingsSet", topics.VTXSettingsSet(), "vtxcore/config/vtx/set"},
		{"VTXPit", topics.VTXPit(), "vtxcore/control/vtx/pit"},
		{"Arm", topics.Arm(), "vtxcore/control/arm"},
		{"VTXStatus", topics.VTXStatus(), "vtxcore/core/vtx/status"},
		{"VTXHistory", topics.VTXHistory(), "vtxcore/core/vtx/history"},
		{"AuditRecent", topics.AuditRecent(), "vtxcore/core/audit/recent"},
		{"SystemStatus", topics.SystemStatus(), "vtxcore/system/status"},
		{"AllVTXStates", topics.AllVTXStates(), "vtxcore/state/vtx/+"},
		{"AllTopics", topics.AllTopics(), "vtxcore/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestTopics_ControlOutsideDeviceNamespace(t *testing.T) {
	topics := Topics{}
	for _, topic := range []string{topics.VTXPit(), topics.Arm(), topics.VTXSettingsSet()} {
		if strings.HasPrefix(topic, TopicPrefix+"/command/vtx/") {
			t.Errorf("%q collides with the per-device command namespace", topic)
		}
	}
}

// =============================================================================
// Options Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "pilot"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "vtxcore-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "pilot" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false")
	}
	if opts.TLSConfig != nil {
		t.Error("TLSConfig set without TLS")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig = %+v, want MinVersion TLS 1.2", opts.TLSConfig)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "vtxcore-test")

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false")
	}
	if opts.WillTopic != (Topics{}).SystemStatus() {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false")
	}

	var status statusPayload
	if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
		t.Fatalf("unmarshal will payload: %v", err)
	}
	if status.Status != "offline" || status.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", status)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	var status statusPayload
	if err := json.Unmarshal(buildStatusPayload("vtxcore", "online", ""), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.Status != "online" || status.ClientID != "vtxcore" {
		t.Errorf("payload = %+v", status)
	}
	if status.Timestamp == "" {
		t.Error("Timestamp empty")
	}
}

// =============================================================================
// Validation Tests (no broker)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "vtxcore/test", []byte("x"), 3, ErrInvalidQoS},
		{"oversize payload", "vtxcore/test", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "vtxcore/test", []byte("x"), 1, ErrNotConnected},
		{"nil payload not connected", "vtxcore/test", nil, 0, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishRetained_NotConnected(t *testing.T) {
	if err := disconnectedClient().PublishRetained("vtxcore/test", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishRetained() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := disconnectedClient()
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, handler, ErrInvalidTopic},
		{"invalid qos", "vtxcore/test", 3, handler, ErrInvalidQoS},
		{"nil handler", "vtxcore/test", 1, nil, ErrSubscribeFailed},
		{"not connected", "vtxcore/test", 1, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes", c.SubscriptionCount())
	}
	if c.HasSubscription("vtxcore/test") {
		t.Error("HasSubscription() = true after failed subscribe")
	}
}

func TestUnsubscribeValidation(t *testing.T) {
	c := disconnectedClient()

	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Unsubscribe("vtxcore/test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := disconnectedClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestClose_NilAndUnconnected(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
	if err := disconnectedClient().Close(); err != nil {
		t.Errorf("unconnected Close() error = %v", err)
	}
}

func TestQoS(t *testing.T) {
	if got := disconnectedClient().QoS(); got != 1 {
		t.Errorf("QoS() = %d, want 1", got)
	}
}

// =============================================================================
// Handler Wrapping Tests
// =============================================================================

func TestWrapHandler_Delivers(t *testing.T) {
	c := disconnectedClient()

	var gotTopic string
	var gotPayload []byte
	wrapped := c.wrapHandler(func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, payload
		return nil
	})
	wrapped(nil, fakeMessage{topic: "vtxcore/control/arm", payload: []byte("true")})

	if gotTopic != "vtxcore/control/arm" || string(gotPayload) != "true" {
		t.Errorf("handler got %q %q", gotTopic, gotPayload)
	}
}

func TestWrapHandler_LogsError(t *testing.T) {
	c := disconnectedClient()
	logger := &mockLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		return errors.New("bad payload")
	})
	wrapped(nil, fakeMessage{topic: "vtxcore/test"})

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one handler error", logger.warns)
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	c := disconnectedClient()
	logger := &mockLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})
	wrapped(nil, fakeMessage{topic: "vtxcore/test"})

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one recovered panic", logger.errors)
	}
}

func TestWrapHandler_PanicWithoutLogger(t *testing.T) {
	c := disconnectedClient()
	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})

	// Must not propagate.
	wrapped(nil, fakeMessage{topic: "vtxcore/test"})
}

func TestDisconnectCallback(t *testing.T) {
	c := disconnectedClient()
	c.connected = true

	var got error
	c.SetOnDisconnect(func(err error) { got = err })
	c.handleDisconnect(errors.New("link down"))

	if got == nil || got.Error() != "link down" {
		t.Errorf("callback error = %v", got)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}
