package app

import (
	"time"

	"github.com/spf13/pflag"

	"automata/internal/config"
)

// Flags are the command-line overrides layered on top of the config file.
// Only flags the user actually set are applied.
type Flags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	Executors []string
	Deadline  time.Duration
	Rounds    int
	Interval  time.Duration
	Seed      int64
	Local     int

	Listen string

	StoreDriver string
	StorePath   string
}

// NewFlags returns a Flags populated with the built-in defaults.
func NewFlags() *Flags {
	def := config.Default()
	return &Flags{
		LogLevel:    def.Log.Level,
		LogFormat:   def.Log.Format,
		Deadline:    def.Requester.Deadline,
		Rounds:      def.Requester.Rounds,
		Interval:    def.Requester.Interval,
		Seed:        def.Requester.Seed,
		Listen:      def.Executor.Listen,
		StoreDriver: def.Storage.Driver,
	}
}

// BindGlobal attaches flags shared by every command.
func (f *Flags) BindGlobal(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", f.ConfigPath, "path to YAML config file")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFormat, "log-format", f.LogFormat, "log format (text, json)")
	fs.StringVar(&f.StoreDriver, "store", f.StoreDriver, "storage driver (memory, sqlite, badger)")
	fs.StringVar(&f.StorePath, "store-path", f.StorePath, "sqlite file or badger directory")
}

// BindRequester attaches requester flags.
func (f *Flags) BindRequester(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.Executors, "executors", f.Executors, "executor addresses")
	fs.DurationVar(&f.Deadline, "deadline", f.Deadline, "per-round response deadline")
	fs.IntVar(&f.Rounds, "rounds", f.Rounds, "rounds to run, 0 runs until interrupted")
	fs.DurationVar(&f.Interval, "interval", f.Interval, "pause between rounds")
	fs.Int64Var(&f.Seed, "seed", f.Seed, "seed for parameter sampling")
	fs.IntVar(&f.Local, "local", f.Local, "run this many in-process executors instead of dialing")
}

// BindExecutor attaches executor flags.
func (f *Flags) BindExecutor(fs *pflag.FlagSet) {
	fs.StringVar(&f.Listen, "listen", f.Listen, "HTTP listen address")
}

// Load reads the config file and applies every flag that was set.
func (f *Flags) Load(changed func(name string) bool) (config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	f.Apply(&cfg, changed)
	return cfg, cfg.Validate()
}

// Apply copies set flags into cfg.
func (f *Flags) Apply(cfg *config.Config, changed func(name string) bool) {
	if changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.LogFormat
	}
	if changed("store") {
		cfg.Storage.Driver = f.StoreDriver
	}
	if changed("store-path") {
		cfg.Storage.Path = f.StorePath
	}
	if changed("executors") {
		cfg.Requester.Executors = f.Executors
	}
	if changed("deadline") {
		cfg.Requester.Deadline = f.Deadline
	}
	if changed("rounds") {
		cfg.Requester.Rounds = f.Rounds
	}
	if changed("interval") {
		cfg.Requester.Interval = f.Interval
	}
	if changed("seed") {
		cfg.Requester.Seed = f.Seed
	}
	if changed("listen") {
		cfg.Executor.Listen = f.Listen
	}
}
