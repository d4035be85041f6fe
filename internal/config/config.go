// Package config loads the optional config.json and fills in run
// defaults. Command-line flags are merged on top by the caller, so the
// precedence is flags over file over defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Defaults applied when neither the file nor the flags say otherwise.
const (
	DefaultOutputDir = "downloads"
	DefaultBitrate   = 256
)

// Config is the file-backed run configuration.
type Config struct {
	OutputDir        string   `json:"outputDir"`
	OutputOnly       bool     `json:"outputOnly"`
	CacheFileName    string   `json:"cacheFileName"`
	SearchFormat     string   `json:"searchFormat"`
	ExtraSearch      string   `json:"extraSearch"`
	ExclusionFilters []string `json:"exclusionFilters"`
	Bitrate          int      `json:"bitrate"`
	MaxDurationMins  int      `json:"maxDurationMinutes"`
	DownloadReport   bool     `json:"downloadReport"`
	Lyrics           bool     `json:"lyrics"`

	SponsorBlockDisabled   bool     `json:"sponsorBlockDisabled"`
	SponsorBlockCategories []string `json:"sponsorBlockCategories"`

	// FfmpegPath names the ffmpeg binary; empty means resolve from the
	// usual locations. UseFfmpegEnvVar resolves it from the FFMPEG_PATH
	// environment variable instead.
	FfmpegPath      string `json:"ffmpegPath"`
	UseFfmpegEnvVar bool   `json:"useFfmpegEnvVar"`
}

// searchPaths are the config file locations tried in order.
func searchPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		"config.json",
		filepath.Join(homeDir, ".spotdl", "config.json"),
		filepath.Join(homeDir, ".config", "spotdl", "config.json"),
	}, nil
}

// Load reads the config file at path, or searches the standard locations
// when path is empty. A missing file is not an error: the tool runs fine
// on defaults alone.
func Load(path string) (*Config, error) {
	var paths []string
	if path != "" {
		paths = []string{path}
	} else {
		var err error
		paths, err = searchPaths()
		if err != nil {
			return nil, err
		}
	}

	var (
		data       []byte
		configPath string
	)
	for _, candidate := range paths {
		read, err := os.ReadFile(candidate)
		if err == nil {
			data, configPath = read, candidate
			break
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config at %s: %w", candidate, err)
		}
	}

	cfg := &Config{}
	if data != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config at %s: %w", configPath, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Bitrate == 0 {
		c.Bitrate = DefaultBitrate
	}
}

func (c *Config) validate() error {
	if c.Bitrate < 32 || c.Bitrate > 320 {
		return fmt.Errorf("bitrate must be between 32 and 320 kbps, got %d", c.Bitrate)
	}
	if c.MaxDurationMins < 0 {
		return errors.New("maxDurationMinutes must not be negative")
	}
	return nil
}

// ResolveFfmpegBinary locates the ffmpeg binary to shell out to: an
// explicit configured path first, then the FFMPEG_PATH environment
// variable when UseFfmpegEnvVar is set, then PATH, then a binary next to
// the executable.
func (c *Config) ResolveFfmpegBinary() (string, error) {
	preferred := strings.TrimSpace(c.FfmpegPath)
	if preferred != "" && preferred != "ffmpeg" {
		return resolveBinary(preferred, "configured ffmpeg binary not found")
	}

	if c.UseFfmpegEnvVar {
		env := strings.TrimSpace(os.Getenv("FFMPEG_PATH"))
		if env == "" {
			return "", errors.New("useFfmpegEnvVar is set but FFMPEG_PATH is empty")
		}
		return resolveBinary(env, "FFMPEG_PATH binary not found")
	}

	if resolved, err := exec.LookPath("ffmpeg"); err == nil {
		return resolved, nil
	}
	if exePath, err := os.Executable(); err == nil {
		local := filepath.Join(filepath.Dir(exePath), "ffmpeg")
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			return local, nil
		}
	}
	return "", errors.New("ffmpeg binary not found (checked PATH and the executable directory)")
}

func resolveBinary(name, errPrefix string) (string, error) {
	if resolved, err := exec.LookPath(name); err == nil {
		return resolved, nil
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}
	return "", fmt.Errorf("%s: %s", errPrefix, name)
}
