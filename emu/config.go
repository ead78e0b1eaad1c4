package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"nesav/emu/log"
	"nesav/hw/apu"
)

type Config struct {
	Audio AudioConfig `toml:"audio"`
	Video VideoConfig `toml:"video"`
}

type AudioConfig struct {
	DisableAudio bool    `toml:"disable_audio"`
	SampleRate   int     `toml:"sample_rate"`
	MasterVolume float64 `toml:"master_volume"`
	BandLimited  bool    `toml:"band_limited"` // blip resampling instead of point sampling
	RingSize     int     `toml:"ring_size"`    // in samples
}

type VideoConfig struct {
	SaveFrames []uint64 `toml:"save_frames"` // frames dumped as PNG by render
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "nesav")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const defaultRingSize = 8192

var defaultConfig = Config{
	Audio: AudioConfig{
		SampleRate:   apu.DefaultSampleRate,
		MasterVolume: 1,
		RingSize:     defaultRingSize,
	},
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return defaultConfig
}

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the nesav config directory,
// or provide a default one.
func LoadConfigOrDefault() Config {
	cfg, err := LoadConfig(filepath.Join(ConfigDir(), cfgFilename))
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadConfig loads and checks the configuration file at path. Settings
// missing from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Check()
	return cfg, nil
}

// SaveConfig into nesav config directory.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func SaveConfigTo(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}

// Check clamps out of range settings to valid values.
func (cfg *Config) Check() {
	a := &cfg.Audio

	if rate := min(max(a.SampleRate, apu.MinSampleRate), apu.MaxSampleRate); rate != a.SampleRate {
		log.ModEmu.WarnZ("sample rate out of range").
			Int("rate", a.SampleRate).
			Int("using", rate).
			End()
		a.SampleRate = rate
	}
	if vol := min(max(a.MasterVolume, 0), 1); vol != a.MasterVolume {
		log.ModEmu.WarnZ("master volume out of range").
			Float("volume", a.MasterVolume).
			Float("using", vol).
			End()
		a.MasterVolume = vol
	}
	if a.RingSize <= 0 {
		log.ModEmu.WarnZ("invalid ring size").
			Int("size", a.RingSize).
			Int("using", defaultRingSize).
			End()
		a.RingSize = defaultRingSize
	}
}

// APUConfig returns the APU settings. Samples are neither queued nor passed
// to a callback, the caller wires the outputs.
func (a AudioConfig) APUConfig() apu.Config {
	return apu.Config{
		SampleRate:   a.SampleRate,
		MasterVolume: a.MasterVolume,
		BandLimited:  a.BandLimited,
	}
}
