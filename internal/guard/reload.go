package guard

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrNoRulesFile is returned when reloading a guard built from the built-in
// tables or from registries passed with WithRegistries.
var ErrNoRulesFile = errors.New("guard has no rules file")

// defaultReloadDelay coalesces the burst of events an editor save produces.
const defaultReloadDelay = 250 * time.Millisecond

// Reload recompiles the rules file and swaps it in. On error the current
// rules stay active.
func (g *Guard) Reload(ctx context.Context) error {
	if g.rulesFile == "" {
		return ErrNoRulesFile
	}

	regs, err := loadRegistries(g.rulesFile)
	if err == nil {
		var snap *snapshot
		if snap, err = newSnapshot(regs, g.policy); err == nil {
			g.current.Store(snap)
		}
	}
	if err != nil {
		RuleReloadsTotal.WithLabelValues("error").Inc()
		g.logger.Warn(ctx, "rules reload failed, keeping current rules",
			zap.String("path", g.rulesFile),
			zap.Error(err),
		)
		return err
	}

	RuleReloadsTotal.WithLabelValues("success").Inc()
	g.logDuplicates(regs)
	g.logger.Info(ctx, "rules reloaded",
		zap.String("path", g.rulesFile),
		zap.String("rules", regs.String()),
	)
	return nil
}

// RulesWatcher reloads a guard's rules file when it changes.
type RulesWatcher struct {
	guard   *Guard
	path    string
	delay   time.Duration
	watcher *fsnotify.Watcher

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRulesWatcher creates a watcher for g's rules file.
func NewRulesWatcher(g *Guard) (*RulesWatcher, error) {
	if g.rulesFile == "" {
		return nil, ErrNoRulesFile
	}
	path, err := filepath.Abs(g.rulesFile)
	if err != nil {
		return nil, fmt.Errorf("resolve rules file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rules watcher: %w", err)
	}

	return &RulesWatcher{
		guard:   g,
		path:    path,
		delay:   defaultReloadDelay,
		watcher: watcher,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the rules file's directory, so files replaced by rename are
// still seen. Events are handled on a background goroutine until Stop or ctx
// cancellation.
func (w *RulesWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("rules watcher already started")
	}

	w.guard.logger.Info(ctx, "watching rules file", zap.String("path", w.path))
	go w.run(ctx)
	return nil
}

// Stop ends watching and waits for the event goroutine to exit.
func (w *RulesWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
}

func (w *RulesWatcher) run(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			_ = w.guard.Reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.guard.logger.Warn(ctx, "rules watcher error", zap.Error(err))
		}
	}
}
