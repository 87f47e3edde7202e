package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/xlog"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// replaceFile swaps the content in one rename, the watcher never sees a
// truncated file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	writeFile(t, tmp, content)
	require.NoError(t, os.Rename(tmp, path))
}

func TestLoad_Defaults(t *testing.T) {
	l, err := Load()
	require.NoError(t, err)
	cfg := l.Config()
	require.Equal(t, tree.RedBlack, cfg.TreeKind())
	require.Equal(t, AutoMode, cfg.StepMode())
	require.Equal(t, 300*time.Millisecond, cfg.Step.Delay)
	require.Equal(t, "INFO", cfg.Log.Level)
	require.Equal(t, "none", cfg.Metrics.Exporter)
	require.False(t, cfg.Session.Validate)

	// No file, nothing to watch.
	l.Watch(func(Config, error) {
		t.Fatal("unexpected reload")
	})
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bstviz.toml")
	writeFile(t, path, `
[tree]
kind = "naive"

[step]
mode = "interactive"
delay = "1s"

[log]
level = "debug"
encoder = "json"
`)
	l, err := Load(WithFile(path))
	require.NoError(t, err)
	cfg := l.Config()
	require.Equal(t, tree.Naive, cfg.TreeKind())
	require.Equal(t, InteractiveMode, cfg.StepMode())
	require.Equal(t, time.Second, cfg.Step.Delay)
	lvl, err := xlog.ParseLogLevel(cfg.Log.Level)
	require.NoError(t, err)
	require.Equal(t, xlog.LogLevelDebug, lvl)

	t.Setenv("BSTVIZ_STEP_DELAY", "50ms")
	t.Setenv("BSTVIZ_SESSION_VALIDATE", "true")
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.String("tree", "redblack", "")
	fs.String("mode", "auto", "")
	require.NoError(t, fs.Parse([]string{"--tree=redblack"}))

	l, err = Load(WithFile(path), WithFlags(fs))
	require.NoError(t, err)
	cfg = l.Config()
	// The changed flag beats the file, the untouched one does not.
	require.Equal(t, tree.RedBlack, cfg.TreeKind())
	require.Equal(t, InteractiveMode, cfg.StepMode())
	require.Equal(t, 50*time.Millisecond, cfg.Step.Delay)
	require.True(t, cfg.Session.Validate)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bstviz.toml")
	writeFile(t, path, `
[tree]
kind = "avl"

[step]
mode = "fast"
delay = "-1s"
`)
	_, err := Load(WithFile(path))
	require.Error(t, err)
	require.ErrorIs(t, err, tree.ErrUnknownKind)
	require.Len(t, multierr.Errors(err), 3)

	_, err = Load(WithFile(filepath.Join(t.TempDir(), "missing.toml")))
	require.Error(t, err)

	_, err = ParseMode("fast")
	require.ErrorIs(t, err, ErrInvalidConfig)
	m, err := ParseMode("Interactive")
	require.NoError(t, err)
	require.Equal(t, "interactive", m.String())
}

func TestLoader_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bstviz.toml")
	writeFile(t, path, "[step]\ndelay = \"100ms\"\n")
	l, err := Load(WithFile(path))
	require.NoError(t, err)

	type reload struct {
		cfg Config
		err error
	}
	reloads := make(chan reload, 16)
	l.Watch(func(cfg Config, err error) {
		reloads <- reload{cfg: cfg, err: err}
	})

	waitFor := func(match func(r reload) bool) reload {
		timeout := time.After(5 * time.Second)
		for {
			select {
			case r := <-reloads:
				if match(r) {
					return r
				}
			case <-timeout:
				t.Fatal("no matching reload")
			}
		}
	}

	replaceFile(t, path, "[step]\ndelay = \"20ms\"\n")
	r := waitFor(func(r reload) bool { return r.err == nil && r.cfg.Step.Delay == 20*time.Millisecond })
	require.Equal(t, 20*time.Millisecond, l.Config().Step.Delay)

	replaceFile(t, path, "[step]\ndelay = \"-5ms\"\n")
	r = waitFor(func(r reload) bool { return r.err != nil })
	require.ErrorIs(t, r.err, ErrInvalidConfig)
	// The last valid configuration stays active.
	require.Equal(t, 20*time.Millisecond, r.cfg.Step.Delay)
	require.Equal(t, 20*time.Millisecond, l.Config().Step.Delay)
}
