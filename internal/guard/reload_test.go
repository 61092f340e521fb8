package guard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

func pineappleRules(weight int) string {
	return fmt.Sprintf("[[signals]]\nlabel = \"pineapple\"\npattern = 'piña'\nweight = %d\n", weight)
}

func newRulesGuard(t *testing.T, content string) (*Guard, string, *logging.TestLogger) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tl := logging.NewTestLogger()
	cfg := NewDefaultConfig()
	cfg.RulesFile = path
	g, err := New(cfg, tl.Logger, WithSink(&memorySink{}))
	require.NoError(t, err)
	return g, path, tl
}

func TestConfig_WatchRules(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.WatchRules = true
	assert.ErrorContains(t, cfg.Validate(), "watch_rules requires rules_file")

	cfg.RulesFile = "rules.toml"
	assert.NoError(t, cfg.Validate())
}

func TestGuard_Reload(t *testing.T) {
	t.Run("without rules file", func(t *testing.T) {
		g, err := New(nil, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, g.Reload(context.Background()), ErrNoRulesFile)

		_, err = NewRulesWatcher(g)
		assert.ErrorIs(t, err, ErrNoRulesFile)
	})

	t.Run("swaps rules", func(t *testing.T) {
		g, path, tl := newRulesGuard(t, pineappleRules(80))
		ctx := context.Background()
		assert.True(t, g.Evaluate(ctx, Message{Text: "Quiero una piña"}).Decision.IsCancel())

		success := RuleReloadsTotal.WithLabelValues("success")
		before := testutil.ToFloat64(success)

		require.NoError(t, os.WriteFile(path, []byte(pineappleRules(10)), 0o600))
		require.NoError(t, g.Reload(ctx))

		assert.True(t, g.Evaluate(ctx, Message{Text: "Quiero una piña"}).Decision.IsPass())
		assert.Equal(t, before+1, testutil.ToFloat64(success))
		tl.AssertLogged(t, zapcore.InfoLevel, "rules reloaded")
	})

	t.Run("keeps rules on error", func(t *testing.T) {
		g, path, tl := newRulesGuard(t, pineappleRules(80))
		ctx := context.Background()
		engine := g.Engine()

		failed := RuleReloadsTotal.WithLabelValues("error")
		before := testutil.ToFloat64(failed)

		require.NoError(t, os.WriteFile(path, []byte("[[signals]]\nlabel = \"broken\"\npattern = '('\n"), 0o600))
		err := g.Reload(ctx)
		assert.ErrorIs(t, err, rules.ErrInvalidRuleFile)

		assert.Same(t, engine, g.Engine())
		assert.True(t, g.Evaluate(ctx, Message{Text: "Quiero una piña"}).Decision.IsCancel())
		assert.Equal(t, before+1, testutil.ToFloat64(failed))
		tl.AssertLogged(t, zapcore.WarnLevel, "rules reload failed")
	})
}

func TestRulesWatcher(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	g, path, tl := newRulesGuard(t, pineappleRules(80))
	ctx := context.Background()

	w, err := NewRulesWatcher(g)
	require.NoError(t, err)
	w.delay = 10 * time.Millisecond

	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "second start")
	tl.AssertLogged(t, zapcore.InfoLevel, "watching rules file")

	require.NoError(t, os.WriteFile(path, []byte(pineappleRules(10)), 0o600))

	require.Eventually(t, func() bool {
		return g.Evaluate(ctx, Message{Text: "Quiero una piña"}).Decision.IsPass()
	}, 5*time.Second, 20*time.Millisecond)

	w.Stop()
	w.Stop()
}

func TestRulesWatcher_StopWithoutStart(t *testing.T) {
	g, _, _ := newRulesGuard(t, pineappleRules(80))
	w, err := NewRulesWatcher(g)
	require.NoError(t, err)
	w.Stop()
}
