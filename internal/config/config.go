// Package config loads reporter settings. Sources are applied in order,
// later ones winning: defaults, YAML file, GPU_REPORT_* environment, flags.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"gpu-metrics-reporter/internal/discovery"
	"gpu-metrics-reporter/internal/smi"
)

// Library backends.
const (
	LibraryAMDSMI  = "amdsmi"
	LibraryFixture = "fixture"
)

// Config holds all reporter settings.
type Config struct {
	// Enumeration is "hierarchical" (sockets, type filter) or "flat".
	Enumeration string `yaml:"enumeration"`
	// Library is "amdsmi" for the native library or "fixture" for a YAML host.
	Library     string `yaml:"library"`
	LibraryPath string `yaml:"library_path"`
	FixturePath string `yaml:"fixture"`

	MaxSockets int `yaml:"max_sockets"`
	MaxDevices int `yaml:"max_devices"`

	ShowUUID bool `yaml:"show_uuid"`
	// FailFast ends the run at the first per-device metrics or partition failure.
	FailFast bool `yaml:"fail_fast"`

	// TextfilePath, when set, receives the run's gauges in Prometheus text format.
	TextfilePath string `yaml:"textfile"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// ConfigFile is where the YAML layer came from, if any.
	ConfigFile string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Enumeration: discovery.StrategyHierarchical,
		Library:     LibraryAMDSMI,
		LibraryPath: smi.DefaultLibraryPath,
		MaxSockets:  discovery.DefaultMaxSockets,
		MaxDevices:  discovery.DefaultMaxDevices,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// Load builds a Config from args (without the program name). It returns
// pflag.ErrHelp when -h/--help was given.
func Load(args []string, stderr io.Writer) (Config, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet("gpu-metrics-reporter", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var flags Config
	fs.StringVar(&flags.ConfigFile, "config", "", "YAML config file (env GPU_REPORT_CONFIG)")
	fs.StringVar(&flags.Enumeration, "enumeration", "", "device enumeration strategy: hierarchical|flat")
	fs.StringVar(&flags.Library, "library", "", "management library backend: amdsmi|fixture")
	fs.StringVar(&flags.LibraryPath, "library-path", "", "shared object loaded by the amdsmi backend")
	fs.StringVar(&flags.FixturePath, "fixture", "", "YAML host description used by the fixture backend")
	fs.IntVar(&flags.MaxSockets, "max-sockets", 0, "maximum number of sockets supported")
	fs.IntVar(&flags.MaxDevices, "max-devices", 0, "maximum number of GPU devices supported")
	fs.BoolVar(&flags.ShowUUID, "show-uuid", false, "resolve and print device UUIDs (hierarchical only)")
	fs.BoolVar(&flags.FailFast, "fail-fast", false, "stop at the first per-device metrics or partition failure")
	fs.StringVar(&flags.TextfilePath, "textfile", "", "write metrics in Prometheus text format to this file")
	fs.StringVar(&flags.LogLevel, "log-level", "", "log level: debug|info|warn|error")
	fs.StringVar(&flags.LogFormat, "log-format", "", "log format: text|json")
	fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return Config{}, fs, err
	}
	if help, _ := fs.GetBool("help"); help {
		return Config{}, fs, pflag.ErrHelp
	}
	if fs.NArg() > 0 {
		return Config{}, fs, fmt.Errorf("config: unexpected argument %q", fs.Arg(0))
	}

	cfg := Default()

	cfg.ConfigFile = envString("GPU_REPORT_CONFIG", "")
	if fs.Changed("config") {
		cfg.ConfigFile = flags.ConfigFile
	}
	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return Config{}, fs, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fs, err
	}
	cfg.applyFlags(fs, flags)
	return cfg, fs, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Enumeration = envString("GPU_REPORT_ENUMERATION", c.Enumeration)
	c.Library = envString("GPU_REPORT_LIBRARY", c.Library)
	c.LibraryPath = envString("GPU_REPORT_LIBRARY_PATH", c.LibraryPath)
	c.FixturePath = envString("GPU_REPORT_FIXTURE", c.FixturePath)
	c.TextfilePath = envString("GPU_REPORT_TEXTFILE", c.TextfilePath)
	c.LogLevel = envString("GPU_REPORT_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envString("GPU_REPORT_LOG_FORMAT", c.LogFormat)

	var err error
	if c.MaxSockets, err = envInt("GPU_REPORT_MAX_SOCKETS", c.MaxSockets); err != nil {
		return err
	}
	if c.MaxDevices, err = envInt("GPU_REPORT_MAX_DEVICES", c.MaxDevices); err != nil {
		return err
	}
	if c.ShowUUID, err = envBool("GPU_REPORT_SHOW_UUID", c.ShowUUID); err != nil {
		return err
	}
	if c.FailFast, err = envBool("GPU_REPORT_FAIL_FAST", c.FailFast); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet, flags Config) {
	if fs.Changed("enumeration") {
		c.Enumeration = flags.Enumeration
	}
	if fs.Changed("library") {
		c.Library = flags.Library
	}
	if fs.Changed("library-path") {
		c.LibraryPath = flags.LibraryPath
	}
	if fs.Changed("fixture") {
		c.FixturePath = flags.FixturePath
	}
	if fs.Changed("max-sockets") {
		c.MaxSockets = flags.MaxSockets
	}
	if fs.Changed("max-devices") {
		c.MaxDevices = flags.MaxDevices
	}
	if fs.Changed("show-uuid") {
		c.ShowUUID = flags.ShowUUID
	}
	if fs.Changed("fail-fast") {
		c.FailFast = flags.FailFast
	}
	if fs.Changed("textfile") {
		c.TextfilePath = flags.TextfilePath
	}
	if fs.Changed("log-level") {
		c.LogLevel = flags.LogLevel
	}
	if fs.Changed("log-format") {
		c.LogFormat = flags.LogFormat
	}
}

func envString(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s=%q is not an integer", key, v)
	}
	return i, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("config: %s=%q is not a boolean", key, v)
	}
	return b, nil
}
