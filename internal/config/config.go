package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/cwbudde/algo-beat/dsp/core"
	"github.com/cwbudde/algo-beat/dsp/track"
)

const (
	AppName       = "beattrack"
	ConfigType    = "yaml"
	DefaultConfig = `# Beat tracker configuration

# Envelope time base
sample_rate: 44100      # Sample rate of the audio the envelope was computed from, in Hz
envelope_hop: 512       # Audio samples between consecutive envelope points

# Analysis windows, in envelope points
win_length: 512         # Samples per analysis window
hop_length: 128         # Samples between window starts

# Tempo prior
expected_bpm: 0         # Gaussian tempo prior centre in BPM, 0 disables the prior
sensitivity: 43         # Rayleigh comb shape in lags, used without a prior
time_signature: 4       # Beats per bar, informational

# Processing
workers: 0              # Windows analysed in parallel, 0 = one per CPU
refine: true            # Re-estimate windows that disagree with their neighbours

# Output
debug: false            # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Envelope time base
	SampleRate  float64 `mapstructure:"sample_rate"`
	EnvelopeHop float64 `mapstructure:"envelope_hop"`

	// Analysis windows
	WinLength int `mapstructure:"win_length"`
	HopLength int `mapstructure:"hop_length"`

	// Tempo prior
	ExpectedBPM   float64 `mapstructure:"expected_bpm"`
	Sensitivity   float64 `mapstructure:"sensitivity"`
	TimeSignature int     `mapstructure:"time_signature"`

	// Processing
	Workers int  `mapstructure:"workers"`
	Refine  bool `mapstructure:"refine"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/beattrack/
func Init() error {
	viper.SetDefault("sample_rate", 44100)
	viper.SetDefault("envelope_hop", 512)
	viper.SetDefault("win_length", 512)
	viper.SetDefault("hop_length", 128)
	viper.SetDefault("expected_bpm", 0)
	viper.SetDefault("sensitivity", 43)
	viper.SetDefault("time_signature", 4)
	viper.SetDefault("workers", 0)
	viper.SetDefault("refine", true)
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if s.SampleRate < 1000 || s.SampleRate > 384000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 1000 and 384000 Hz, got %v", s.SampleRate))
	}
	if s.EnvelopeHop < 1 || s.EnvelopeHop > 65536 {
		errs = append(errs, fmt.Errorf("envelope_hop must be between 1 and 65536, got %v", s.EnvelopeHop))
	}

	if s.WinLength < 16 || s.WinLength > 1<<16 {
		errs = append(errs, fmt.Errorf("win_length must be between 16 and 65536, got %d", s.WinLength))
	}
	if s.HopLength < 1 || s.HopLength > s.WinLength {
		errs = append(errs, fmt.Errorf("hop_length must be between 1 and win_length (%d), got %d", s.WinLength, s.HopLength))
	}

	if s.ExpectedBPM != 0 && (s.ExpectedBPM < 20 || s.ExpectedBPM > 400) {
		errs = append(errs, fmt.Errorf("expected_bpm must be 0 or between 20 and 400, got %v", s.ExpectedBPM))
	}
	if s.Sensitivity <= 0 {
		errs = append(errs, fmt.Errorf("sensitivity must be > 0, got %v", s.Sensitivity))
	}
	if s.TimeSignature < 0 || s.TimeSignature > 32 {
		errs = append(errs, fmt.Errorf("time_signature must be between 0 and 32, got %d", s.TimeSignature))
	}

	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", s.Workers))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TrackConfig returns the tracker configuration described by s.
func (s *Settings) TrackConfig() track.Config {
	return track.Config{
		WindowLength:  s.WinLength,
		HopLength:     s.HopLength,
		ExpectedBPM:   s.ExpectedBPM,
		TimeSignature: s.TimeSignature,
		Sensitivity:   s.Sensitivity,
	}
}

// TimeBase returns the envelope time base.
func (s *Settings) TimeBase() core.AnalysisConfig {
	return core.ApplyAnalysisOptions(
		core.WithSampleRate(s.SampleRate),
		core.WithHopLength(s.EnvelopeHop),
	)
}
