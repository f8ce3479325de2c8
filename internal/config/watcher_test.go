package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/depthnode/internal/logging"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, path string, debounce time.Duration, opts ...WatcherOption[logging.Config]) *Watcher[logging.Config] {
	t.Helper()
	opts = append([]WatcherOption[logging.Config]{WithDebounce[logging.Config](debounce)}, opts...)
	w := NewConfigWatcher(path, ReadLoggingConfig, newTestLogger(), opts...)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	// let the watcher settle before the first write
	time.Sleep(50 * time.Millisecond)
	return w
}

func TestConfigWatcher_ReloadsLoggingLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	received := make(chan logging.Config, 1)
	w := startWatcher(t, path, 50*time.Millisecond)
	w.OnReload(func(cfg logging.Config) { received <- cfg })

	writeConfig(t, path, "[logging]\nlevel = \"warn\"\ncamera = \"debug\"\n")

	select {
	case cfg := <-received:
		if cfg.Level != "warn" || cfg.Modules["camera"] != "debug" {
			t.Errorf("got %+v, want level=warn camera=debug", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestConfigWatcher_RenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	received := make(chan logging.Config, 1)
	w := startWatcher(t, path, 50*time.Millisecond)
	w.OnReload(func(cfg logging.Config) { received <- cfg })

	// editors save by writing a temp file and renaming it over the original
	tmp := filepath.Join(dir, ".depthnode.toml.swp")
	writeConfig(t, tmp, "[logging]\nlevel = \"error\"\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Level != "error" {
			t.Errorf("level = %q, want error", cfg.Level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestConfigWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	var count atomic.Int32
	w := startWatcher(t, path, 20*time.Millisecond)
	w.OnReload(func(logging.Config) { count.Add(1) })

	writeConfig(t, filepath.Join(dir, "models.toml"), "# unrelated\n")
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("sibling write triggered %d reloads", got)
	}
}

func TestConfigWatcher_MultipleHandlersShareSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	var mu sync.Mutex
	var configs []logging.Config
	w := startWatcher(t, path, 50*time.Millisecond)
	for range 3 {
		w.OnReload(func(cfg logging.Config) {
			mu.Lock()
			configs = append(configs, cfg)
			mu.Unlock()
		})
	}

	writeConfig(t, path, "[logging]\nlevel = \"debug\"\n")
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(configs) != 3 {
		t.Fatalf("expected 3 handler calls, got %d", len(configs))
	}
	for i, cfg := range configs {
		if cfg.Level != "debug" {
			t.Errorf("handler %d got %+v", i, cfg)
		}
	}
}

func TestConfigWatcher_Unsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	var count1, count2 atomic.Int32
	w := startWatcher(t, path, 50*time.Millisecond)
	w.OnReload(func(logging.Config) { count1.Add(1) })
	unsub := w.OnReload(func(logging.Config) { count2.Add(1) })

	writeConfig(t, path, "[logging]\nlevel = \"warn\"\n")
	time.Sleep(250 * time.Millisecond)

	unsub()
	writeConfig(t, path, "[logging]\nlevel = \"error\"\n")
	time.Sleep(250 * time.Millisecond)

	if got := count1.Load(); got != 2 {
		t.Errorf("handler1: expected 2 calls, got %d", got)
	}
	if got := count2.Load(); got != 1 {
		t.Errorf("handler2: expected 1 call, got %d", got)
	}
}

func TestConfigWatcher_ErrorKeepsHandlersQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	errorReceived := make(chan error, 1)
	configReceived := make(chan logging.Config, 1)
	w := startWatcher(t, path, 50*time.Millisecond,
		WithErrorHandler[logging.Config](func(err error) { errorReceived <- err }))
	w.OnReload(func(cfg logging.Config) { configReceived <- cfg })

	writeConfig(t, path, "[logging]\ncamera = \"chatty\"\n")

	select {
	case err := <-errorReceived:
		if err == nil {
			t.Error("nil error reported")
		}
	case <-configReceived:
		t.Fatal("config handler should not be called on error")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestConfigWatcher_Debounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nbuffer_size = 0\n")

	var count atomic.Int32
	var last atomic.Int32
	w := startWatcher(t, path, 200*time.Millisecond)
	w.OnReload(func(cfg logging.Config) {
		count.Add(1)
		last.Store(int32(cfg.BufferSize))
	})

	for i := 1; i <= 5; i++ {
		writeConfig(t, path, fmt.Sprintf("[logging]\nbuffer_size = %d\n", i*100))
		time.Sleep(40 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced call, got %d", got)
	}
	if got := last.Load(); got != 500 {
		t.Errorf("expected final buffer size 500, got %d", got)
	}
}

func TestConfigWatcher_ManualReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"warn\"\n")

	received := make(chan logging.Config, 1)
	w := startWatcher(t, path, 10*time.Millisecond)
	w.OnReload(func(cfg logging.Config) { received <- cfg })

	w.Reload()
	select {
	case cfg := <-received:
		if cfg.Level != "warn" {
			t.Errorf("level = %q", cfg.Level)
		}
	case <-time.After(time.Second):
		t.Fatal("Reload did not notify handlers")
	}
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depthnode.toml")
	writeConfig(t, path, "[logging]\nlevel = \"info\"\n")

	var count atomic.Int32
	w := NewConfigWatcher(path, func(p string) (logging.Config, error) {
		count.Add(1)
		return ReadLoggingConfig(p)
	}, newTestLogger(), WithDebounce[logging.Config](20*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}

	writeConfig(t, path, "[logging]\nlevel = \"debug\"\n")
	time.Sleep(150 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 loads after stop, got %d", got)
	}
}

func TestStartFailsForMissingDirectory(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "gone", "depthnode.toml"), ReadLoggingConfig, newTestLogger())
	err := w.Start()
	if err == nil {
		w.Stop()
		t.Fatal("Start should fail when the directory does not exist")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Logf("Start error: %v", err)
	}
}
