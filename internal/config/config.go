package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/focusmind/focustrack/internal/tracker"
)

// Config is the top-level focustrack configuration.
type Config struct {
	ListenAddr    string  `mapstructure:"listen_addr"`
	NudgeURL      string  `mapstructure:"nudge_url"`
	CaptureRateHz float64 `mapstructure:"capture_rate_hz"`
	ProfilePath   string  `mapstructure:"profile_path"`

	Alphas  tracker.Alphas  `mapstructure:"ema_alpha_per_signal"`
	Weights tracker.Weights `mapstructure:"fusion_weights"`

	PresenceThreshold float64   `mapstructure:"presence_threshold"`
	Bands             []float64 `mapstructure:"threshold_bands"`
	CooldownSeconds   float64   `mapstructure:"cooldown_seconds"`

	GazeLimit        float64 `mapstructure:"gaze_limit"`
	HeadLimitDegrees float64 `mapstructure:"head_limit_degrees"`
	BlinkCenter      float64 `mapstructure:"blink_center"`
	BlinkSpan        float64 `mapstructure:"blink_span"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. A missing config file is
// not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("nudge_url", "")
	v.SetDefault("capture_rate_hz", DefaultCaptureRateHz)
	v.SetDefault("profile_path", filepath.Join(DefaultConfigDir, DefaultProfileName))
	v.SetDefault("ema_alpha_per_signal.presence", DefaultAlphas.Presence)
	v.SetDefault("ema_alpha_per_signal.eye_openness", DefaultAlphas.EyeOpenness)
	v.SetDefault("ema_alpha_per_signal.gaze", DefaultAlphas.Gaze)
	v.SetDefault("ema_alpha_per_signal.head", DefaultAlphas.Head)
	v.SetDefault("ema_alpha_per_signal.blink", DefaultAlphas.Blink)
	v.SetDefault("fusion_weights.presence", DefaultWeights.Presence)
	v.SetDefault("fusion_weights.gaze", DefaultWeights.Gaze)
	v.SetDefault("fusion_weights.eyes", DefaultWeights.Eyes)
	v.SetDefault("fusion_weights.head", DefaultWeights.Head)
	v.SetDefault("fusion_weights.blink", DefaultWeights.Blink)
	v.SetDefault("presence_threshold", DefaultPresenceThreshold)
	v.SetDefault("threshold_bands", DefaultBands)
	v.SetDefault("cooldown_seconds", DefaultCooldownSeconds)
	v.SetDefault("gaze_limit", DefaultGazeLimit)
	v.SetDefault("head_limit_degrees", DefaultHeadLimitDegrees)
	v.SetDefault("blink_center", DefaultBlinkCenter)
	v.SetDefault("blink_span", DefaultBlinkSpan)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ProfilePath = expandPath(cfg.ProfilePath)
	return &cfg, nil
}

// Pipeline converts the config into the tracker's pipeline wiring.
func (c *Config) Pipeline() tracker.Config {
	return tracker.Config{
		Alphas: c.Alphas,
		Fuser: tracker.FuserConfig{
			Weights:           c.Weights,
			PresenceThreshold: c.PresenceThreshold,
			GazeLimit:         c.GazeLimit,
			HeadLimitDegrees:  c.HeadLimitDegrees,
			BlinkCenter:       c.BlinkCenter,
			BlinkSpan:         c.BlinkSpan,
		},
		Bands:    c.Bands,
		Cooldown: time.Duration(c.CooldownSeconds * float64(time.Second)),
	}
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
