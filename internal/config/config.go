// Package config holds runtime settings. Values come from built-in
// defaults, then an optional TOML file, then HOTPOT_* environment
// variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/hammamikhairi/hotpot/internal/logger"
	"github.com/hammamikhairi/hotpot/internal/storage"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "hotpot.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HOTPOT"

// Config is the full runtime configuration.
type Config struct {
	DataDir string
	Store   string

	TickInterval     time.Duration
	StartWindow      time.Duration
	FishWindow       time.Duration
	UnlockTaps       int
	UnlockWindow     time.Duration
	AlmostDone       time.Duration
	ReminderInterval time.Duration
	MaxReminders     int

	Sound          bool
	Speech         bool
	SpeechCacheDir string
	Voice          bool
	WhisperBin     string
	WhisperModel   string

	LogLevel string
	LogFile  string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:          ".hotpot",
		Store:            storage.KindFile,
		TickInterval:     50 * time.Millisecond,
		StartWindow:      180 * time.Millisecond,
		FishWindow:       300 * time.Millisecond,
		UnlockTaps:       3,
		UnlockWindow:     time.Second,
		AlmostDone:       10 * time.Second,
		ReminderInterval: 30 * time.Second,
		MaxReminders:     3,
		Sound:            true,
		Speech:           false,
		SpeechCacheDir:   ".hotpot/tts-cache",
		Voice:            false,
		WhisperBin:       "whisper-cli",
		WhisperModel:     "bin/ggml-small.bin",
		LogLevel:         "info",
		LogFile:          ".hotpot/hotpot.log",
	}
}

// Keys lists every setting name. The same names are used in the TOML
// file, as flags, and (upper-cased, prefixed) as environment variables.
var Keys = []string{
	"data_dir", "store", "tick_interval", "start_window", "fish_window",
	"unlock_taps", "unlock_window", "almost_done", "reminder_interval",
	"max_reminders", "sound", "speech", "speech_cache_dir", "voice",
	"whisper_bin", "whisper_model", "log_level", "log_file",
}

// fileConfig mirrors the TOML keys. Durations are strings like "180ms".
type fileConfig struct {
	DataDir          string `toml:"data_dir"`
	Store            string `toml:"store"`
	TickInterval     string `toml:"tick_interval"`
	StartWindow      string `toml:"start_window"`
	FishWindow       string `toml:"fish_window"`
	UnlockTaps       int    `toml:"unlock_taps"`
	UnlockWindow     string `toml:"unlock_window"`
	AlmostDone       string `toml:"almost_done"`
	ReminderInterval string `toml:"reminder_interval"`
	MaxReminders     int    `toml:"max_reminders"`
	Sound            bool   `toml:"sound"`
	Speech           bool   `toml:"speech"`
	SpeechCacheDir   string `toml:"speech_cache_dir"`
	Voice            bool   `toml:"voice"`
	WhisperBin       string `toml:"whisper_bin"`
	WhisperModel     string `toml:"whisper_model"`
	LogLevel         string `toml:"log_level"`
	LogFile          string `toml:"log_file"`
}

// LoadFile overlays the keys present in a TOML file onto cfg. Keys the
// file does not define keep their current value.
func LoadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	var errs []error
	str := func(key string, dst *string, v string) {
		if meta.IsDefined(key) {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration, v string) {
		if !meta.IsDefined(key) {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str("data_dir", &cfg.DataDir, raw.DataDir)
	str("store", &cfg.Store, raw.Store)
	dur("tick_interval", &cfg.TickInterval, raw.TickInterval)
	dur("start_window", &cfg.StartWindow, raw.StartWindow)
	dur("fish_window", &cfg.FishWindow, raw.FishWindow)
	if meta.IsDefined("unlock_taps") {
		cfg.UnlockTaps = raw.UnlockTaps
	}
	dur("unlock_window", &cfg.UnlockWindow, raw.UnlockWindow)
	dur("almost_done", &cfg.AlmostDone, raw.AlmostDone)
	dur("reminder_interval", &cfg.ReminderInterval, raw.ReminderInterval)
	if meta.IsDefined("max_reminders") {
		cfg.MaxReminders = raw.MaxReminders
	}
	if meta.IsDefined("sound") {
		cfg.Sound = raw.Sound
	}
	if meta.IsDefined("speech") {
		cfg.Speech = raw.Speech
	}
	str("speech_cache_dir", &cfg.SpeechCacheDir, raw.SpeechCacheDir)
	if meta.IsDefined("voice") {
		cfg.Voice = raw.Voice
	}
	str("whisper_bin", &cfg.WhisperBin, raw.WhisperBin)
	str("whisper_model", &cfg.WhisperModel, raw.WhisperModel)
	str("log_level", &cfg.LogLevel, raw.LogLevel)
	str("log_file", &cfg.LogFile, raw.LogFile)

	if len(errs) > 0 {
		return fmt.Errorf("load config %s: %w", path, errors.Join(errs...))
	}
	return nil
}

// ApplyViper overlays every key that v has explicitly set, from a bound
// flag or a HOTPOT_* variable.
func ApplyViper(v *viper.Viper, cfg *Config) {
	set := func(key string) bool { return v.IsSet(key) }

	if set("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if set("store") {
		cfg.Store = v.GetString("store")
	}
	if set("tick_interval") {
		cfg.TickInterval = v.GetDuration("tick_interval")
	}
	if set("start_window") {
		cfg.StartWindow = v.GetDuration("start_window")
	}
	if set("fish_window") {
		cfg.FishWindow = v.GetDuration("fish_window")
	}
	if set("unlock_taps") {
		cfg.UnlockTaps = v.GetInt("unlock_taps")
	}
	if set("unlock_window") {
		cfg.UnlockWindow = v.GetDuration("unlock_window")
	}
	if set("almost_done") {
		cfg.AlmostDone = v.GetDuration("almost_done")
	}
	if set("reminder_interval") {
		cfg.ReminderInterval = v.GetDuration("reminder_interval")
	}
	if set("max_reminders") {
		cfg.MaxReminders = v.GetInt("max_reminders")
	}
	if set("sound") {
		cfg.Sound = v.GetBool("sound")
	}
	if set("speech") {
		cfg.Speech = v.GetBool("speech")
	}
	if set("speech_cache_dir") {
		cfg.SpeechCacheDir = v.GetString("speech_cache_dir")
	}
	if set("voice") {
		cfg.Voice = v.GetBool("voice")
	}
	if set("whisper_bin") {
		cfg.WhisperBin = v.GetString("whisper_bin")
	}
	if set("whisper_model") {
		cfg.WhisperModel = v.GetString("whisper_model")
	}
	if set("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if set("log_file") {
		cfg.LogFile = v.GetString("log_file")
	}
}

// NewViper returns a viper instance reading HOTPOT_* variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, k := range Keys {
		_ = v.BindEnv(k)
	}
	return v
}

// Validate rejects settings the runtime cannot work with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" && c.Store != storage.KindMemory {
		errs = append(errs, errors.New("data_dir is required"))
	}
	switch c.Store {
	case storage.KindMemory, storage.KindFile, storage.KindSQLite:
	default:
		errs = append(errs, fmt.Errorf("store %q: want memory, file or sqlite", c.Store))
	}
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	positive("tick_interval", c.TickInterval)
	positive("start_window", c.StartWindow)
	positive("fish_window", c.FishWindow)
	positive("unlock_window", c.UnlockWindow)
	positive("reminder_interval", c.ReminderInterval)
	if c.AlmostDone < 0 {
		errs = append(errs, fmt.Errorf("almost_done must not be negative, got %s", c.AlmostDone))
	}
	if c.UnlockTaps < 1 {
		errs = append(errs, fmt.Errorf("unlock_taps must be at least 1, got %d", c.UnlockTaps))
	}
	if c.MaxReminders < 0 {
		errs = append(errs, fmt.Errorf("max_reminders must not be negative, got %d", c.MaxReminders))
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q: want off, info or debug", c.LogLevel))
	}
	if c.Voice && strings.TrimSpace(c.WhisperModel) == "" {
		errs = append(errs, errors.New("whisper_model is required when voice is on"))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level.
func (c Config) Level() logger.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}
