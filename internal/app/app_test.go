package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/thoughtguard/internal/audit"
	"github.com/fyrsmithlabs/thoughtguard/internal/bus"
	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/natstest"
	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
)

const narration = "Es Pedro, el del ordenador portátil. Voy a buscar su ficha."

func testConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	return cfg
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, NewDefaultConfig().Guard, cfg.Guard)
		assert.True(t, cfg.Metrics.Enabled)
		assert.False(t, cfg.NATS.Enabled)
	})

	t.Run("file and environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`server:
  port: 8181
guard:
  strategy: redaction
nats:
  enabled: true
  client_channels: [whatsapp, sms]
`), 0600))
		t.Setenv("THOUGHTGUARD_GUARD_BLOCK_THRESHOLD", "70")
		t.Setenv("THOUGHTGUARD_NATS_INTERNAL_CHANNELS", "slack-ops, teams")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8181, cfg.Server.Port)
		assert.Equal(t, policy.StrategyRedaction, cfg.Guard.Strategy)
		assert.Equal(t, 70, cfg.Guard.BlockThreshold)
		assert.True(t, cfg.NATS.Enabled)
		assert.Equal(t, []string{"whatsapp", "sms"}, cfg.NATS.ClientChannels)
		assert.Equal(t, []string{"slack-ops", "teams"}, cfg.NATS.InternalChannels)
		assert.Equal(t, bus.DefaultClassifySubject, cfg.NATS.ClassifySubject)
	})

	t.Run("invalid section", func(t *testing.T) {
		t.Setenv("THOUGHTGUARD_GUARD_STRATEGY", "vibes")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "guard:")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"server", func(c *Config) { c.Server.Port = -1 }, "server:"},
		{"guard", func(c *Config) { c.Guard.Strategy = "" }, "guard:"},
		{"nats", func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }, "nats:"},
		{"logging", func(c *Config) { c.Logging.Format = "xml" }, "logging:"},
		{"telemetry", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = "collector.example.com:4317"
		}, "telemetry:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNew_HTTPOnly(t *testing.T) {
	tl := logging.NewTestLogger()
	a, err := New(context.Background(), testConfig(), WithLogger(tl.Logger))
	require.NoError(t, err)
	t.Cleanup(func() { a.release(context.Background()) })

	assert.Nil(t, a.subscriber)
	tl.AssertLogged(t, zapcore.InfoLevel, "guard ready")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(`{"text":"`+narration+`"}`))
	req.Header.Set("Content-Type", "application/json")
	a.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var v guard.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Decision.IsCancel())

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "thoughtguard_decisions_total")
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false

	a, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { a.release(context.Background()) })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Guard.Strategy = "vibes"
		_, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
		assert.ErrorContains(t, err, "invalid configuration")
	})

	t.Run("missing rules file", func(t *testing.T) {
		cfg := testConfig()
		cfg.Guard.RulesFile = filepath.Join(t.TempDir(), "missing.toml")
		_, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
		assert.ErrorContains(t, err, "failed to initialize guard")
	})

	t.Run("nats unreachable", func(t *testing.T) {
		cfg := testConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.URL = "nats://127.0.0.1:1"
		cfg.NATS.ConnectRetries = 0
		_, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
		assert.ErrorContains(t, err, "failed to initialize nats")
	})
}

func TestRun_WithNATS(t *testing.T) {
	server := natstest.StartServer(t)

	cfg := testConfig()
	cfg.NATS.Enabled = true
	cfg.NATS.URL = server.ClientURL()
	cfg.NATS.InternalChannels = []string{"slack-ops"}

	a, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
	require.NoError(t, err)

	client, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer client.Close()

	records, err := client.SubscribeSync(audit.DefaultSubject + ".>")
	require.NoError(t, err)
	require.NoError(t, client.Flush())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	data, err := json.Marshal(guard.Message{Text: narration, Channel: "whatsapp"})
	require.NoError(t, err)

	var reply bus.Reply
	require.Eventually(t, func() bool {
		msg, err := client.Request(bus.DefaultClassifySubject, data, 500*time.Millisecond)
		if err != nil {
			return false
		}
		return json.Unmarshal(msg.Data, &reply) == nil
	}, 5*time.Second, 50*time.Millisecond)

	require.NotNil(t, reply.Verdict)
	assert.True(t, reply.Gated)
	assert.True(t, reply.Decision.IsCancel())

	msg, err := records.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, audit.DefaultSubject+".whatsapp", msg.Subject)

	var rec audit.Record
	require.NoError(t, json.Unmarshal(msg.Data, &rec))
	assert.Equal(t, reply.ID, rec.ID)
	assert.True(t, rec.Decision.IsCancel())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	_, err = client.Request(bus.DefaultClassifySubject, data, 200*time.Millisecond)
	assert.Error(t, err, "subscriber stopped after shutdown")
}

func TestRun_WatchRules(t *testing.T) {
	t.Run("watches until cancelled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Guard.RulesFile = filepath.Join(t.TempDir(), "rules.toml")
		cfg.Guard.WatchRules = true
		require.NoError(t, os.WriteFile(cfg.Guard.RulesFile, nil, 0o600))

		tl := logging.NewTestLogger()
		a, err := New(context.Background(), cfg, WithLogger(tl.Logger))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- a.Run(ctx) }()

		require.Eventually(t, func() bool {
			return tl.FilterMessage("watching rules file").Len() == 1
		}, 5*time.Second, 20*time.Millisecond)

		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("run did not return after cancel")
		}
	})

	t.Run("rules directory removed", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "rules")
		require.NoError(t, os.Mkdir(dir, 0o700))

		cfg := testConfig()
		cfg.Guard.RulesFile = filepath.Join(dir, "rules.toml")
		cfg.Guard.WatchRules = true
		require.NoError(t, os.WriteFile(cfg.Guard.RulesFile, nil, 0o600))

		a, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(dir))

		err = a.Run(context.Background())
		assert.ErrorContains(t, err, "failed to watch rules")
	})
}

func TestRun_PortInUse(t *testing.T) {
	ln := httptest.NewServer(http.NotFoundHandler())
	defer ln.Close()

	cfg := testConfig()
	host := strings.TrimPrefix(ln.URL, "http://")
	idx := strings.LastIndex(host, ":")
	cfg.Server.Host = host[:idx]
	port, err := strconv.Atoi(host[idx+1:])
	require.NoError(t, err)
	cfg.Server.Port = port

	a, err := New(context.Background(), cfg, WithLogger(logging.NewNop()))
	require.NoError(t, err)

	err = a.Run(context.Background())
	assert.ErrorContains(t, err, "http server")
}
