// Package config loads the bstviz settings from an optional file, the
// BSTVIZ_ environment variables and the command line flags, in increasing
// priority.
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/observability"
	"github.com/benz9527/bstviz/xlog"
)

const (
	KeyTreeKind        = "tree.kind"
	KeyStepMode        = "step.mode"
	KeyStepDelay       = "step.delay"
	KeyLogLevel        = "log.level"
	KeyLogEncoder      = "log.encoder"
	KeyMetricsExporter = "metrics.exporter"
	KeyMetricsInterval = "metrics.interval"
	KeySessionValidate = "session.validate"

	envPrefix = "BSTVIZ"
)

var ErrInvalidConfig = errors.New("[config] invalid configuration")

type Mode uint8

const (
	AutoMode Mode = iota
	InteractiveMode
)

func (m Mode) String() string {
	if m == InteractiveMode {
		return "interactive"
	}
	return "auto"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return AutoMode, nil
	case "interactive", "step":
		return InteractiveMode, nil
	default:
	}
	return AutoMode, errors.Wrapf(ErrInvalidConfig, "unknown step mode %q", s)
}

type TreeConfig struct {
	Kind string `mapstructure:"kind"`
}

type StepConfig struct {
	Mode  string        `mapstructure:"mode"`
	Delay time.Duration `mapstructure:"delay"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Encoder string `mapstructure:"encoder"`
}

type MetricsConfig struct {
	Exporter string        `mapstructure:"exporter"`
	Interval time.Duration `mapstructure:"interval"`
}

type SessionConfig struct {
	Validate bool `mapstructure:"validate"`
}

type Config struct {
	Tree    TreeConfig    `mapstructure:"tree"`
	Step    StepConfig    `mapstructure:"step"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Session SessionConfig `mapstructure:"session"`
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if _, e := tree.ParseKind(c.Tree.Kind); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := ParseMode(c.Step.Mode); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Step.Delay < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "negative step delay %s", c.Step.Delay))
	}
	if _, e := xlog.ParseLogLevel(c.Log.Level); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := xlog.ParseEncoder(c.Log.Encoder); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := observability.ParseExporter(c.Metrics.Exporter); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Metrics.Interval <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidConfig, "metrics interval %s", c.Metrics.Interval))
	}
	return err
}

func (c *Config) TreeKind() tree.Kind {
	k, _ := tree.ParseKind(c.Tree.Kind)
	return k
}

func (c *Config) StepMode() Mode {
	m, _ := ParseMode(c.Step.Mode)
	return m
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTreeKind, tree.RedBlack.String())
	v.SetDefault(KeyStepMode, AutoMode.String())
	v.SetDefault(KeyStepDelay, 300*time.Millisecond)
	v.SetDefault(KeyLogLevel, xlog.LogLevelInfo.String())
	v.SetDefault(KeyLogEncoder, "plaintext")
	v.SetDefault(KeyMetricsExporter, observability.NoneExporter.String())
	v.SetDefault(KeyMetricsInterval, 10*time.Second)
	v.SetDefault(KeySessionValidate, false)
}

// FlagKeys maps the command line flag names onto the configuration keys.
var FlagKeys = map[string]string{
	"tree":      KeyTreeKind,
	"mode":      KeyStepMode,
	"delay":     KeyStepDelay,
	"log-level": KeyLogLevel,
	"validate":  KeySessionValidate,
}

type Loader struct {
	lock sync.Mutex
	v    *viper.Viper
	path string
	cfg  *Config
}

type Option func(*Loader) error

func WithFile(path string) Option {
	return func(l *Loader) error {
		l.path = strings.TrimSpace(path)
		return nil
	}
}

// WithFlags binds the flags named in FlagKeys. Flags left at their
// default value do not override the file or the environment.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(l *Loader) error {
		if fs == nil {
			return nil
		}
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := l.v.BindPFlag(key, f); err != nil {
					return errors.Wrapf(err, "[config] bind flag %s", name)
				}
			}
		}
		return nil
	}
}

func Load(opts ...Option) (*Loader, error) {
	l := &Loader{v: viper.New()}
	setDefaults(l.v)
	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(l); err != nil {
			return nil, err
		}
	}
	if l.path != "" {
		l.v.SetConfigFile(l.path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "[config] read %s", l.path)
		}
	}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.cfg = cfg
	return l, nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "[config] unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) Config() Config {
	l.lock.Lock()
	defer l.lock.Unlock()
	return *l.cfg
}

// Watch calls fn after every change of the configuration file. An invalid
// file keeps the previous configuration and fn gets the error. Without a
// file Watch does nothing.
func (l *Loader) Watch(fn func(cfg Config, err error)) {
	if l.path == "" || fn == nil {
		return
	}
	l.v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		l.lock.Lock()
		if err == nil {
			l.cfg = cfg
		}
		current := *l.cfg
		l.lock.Unlock()
		fn(current, errors.Wrapf(err, "[config] reload %s", event.Name))
	})
	l.v.WatchConfig()
}
