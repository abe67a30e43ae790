// Package config loads the reader's settings from a JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"captcha-reader/internal/classifier"
	"captcha-reader/internal/glyph"
	"captcha-reader/internal/preprocess"
	"captcha-reader/internal/segment"
	"captcha-reader/internal/solver"

	"github.com/joho/godotenv"
)

const (
	appDir     = "captcha-reader"
	configFile = "config.json"
)

// Environment variables that override file settings.
const (
	EnvInitialK    = "CAPTCHA_K"
	EnvTarget      = "CAPTCHA_TARGET"
	EnvMaxIter     = "CAPTCHA_MAX_ITER"
	EnvBackend     = "CAPTCHA_BACKEND"
	EnvModel       = "CAPTCHA_MODEL"
	EnvAlphabet    = "CAPTCHA_ALPHABET"
	EnvOnnxRuntime = "ONNXRUNTIME_LIB"
)

// Config holds every tunable of the pipeline and the classifier backend.
type Config struct {
	InitialK      int     `json:"initial_k"`
	TargetCount   int     `json:"target_count"`
	MaxIterations int     `json:"max_iterations"`
	HeightRatio   float64 `json:"height_ratio"`

	ErodeWidth      int  `json:"erode_width"`
	ErodeHeight     int  `json:"erode_height"`
	ErodeIterations int  `json:"erode_iterations"`
	Invert          bool `json:"invert"`

	Padding int `json:"padding"`

	InputWidth    int    `json:"input_width"`
	InputHeight   int    `json:"input_height"`
	InputChannels int    `json:"input_channels"`
	Alphabet      string `json:"alphabet"`

	Backend         string `json:"backend"`
	ModelPath       string `json:"model_path"`
	OnnxRuntimePath string `json:"onnxruntime_path,omitempty"`
}

// Default returns the settings of the reference deployment.
func Default() *Config {
	return &Config{
		InitialK:        solver.DefaultInitialK,
		TargetCount:     4,
		MaxIterations:   50,
		HeightRatio:     segment.DefaultHeightRatio,
		ErodeWidth:      3,
		ErodeHeight:     1,
		ErodeIterations: 1,
		Padding:         glyph.DefaultPadding,
		InputWidth:      64,
		InputHeight:     64,
		InputChannels:   1,
		Alphabet:        classifier.DefaultLetters,
		Backend:         string(classifier.BackendONNX),
		ModelPath:       "captcha_model.onnx",
	}
}

// DefaultPath returns ~/.config/captcha-reader/config.json.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, appDir, configFile)
}

// Load reads the config at path (DefaultPath when empty), then applies
// variables from an optional .env file in the working directory and the
// process environment. A missing config file leaves the defaults in place.
// Variables already set in the environment win over .env.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvInitialK, &c.InitialK},
		{EnvTarget, &c.TargetCount},
		{EnvMaxIter, &c.MaxIterations},
	}
	for _, v := range ints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}

	c.Backend = getEnvWithDefault(EnvBackend, c.Backend)
	c.ModelPath = getEnvWithDefault(EnvModel, c.ModelPath)
	c.Alphabet = getEnvWithDefault(EnvAlphabet, c.Alphabet)
	c.OnnxRuntimePath = getEnvWithDefault(EnvOnnxRuntime, c.OnnxRuntimePath)
	return nil
}

func getEnvWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.InitialK < 1:
		return fmt.Errorf("initial_k must be positive, got %d", c.InitialK)
	case c.TargetCount < 1:
		return fmt.Errorf("target_count must be positive, got %d", c.TargetCount)
	case c.MaxIterations < 1:
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	case c.HeightRatio <= 0 || c.HeightRatio > 1:
		return fmt.Errorf("height_ratio must be in (0,1], got %g", c.HeightRatio)
	case c.ErodeIterations < 0:
		return fmt.Errorf("erode_iterations must not be negative, got %d", c.ErodeIterations)
	case c.ErodeIterations > 0 && (c.ErodeWidth < 1 || c.ErodeHeight < 1):
		return fmt.Errorf("erosion element must be at least 1x1, got %dx%d", c.ErodeWidth, c.ErodeHeight)
	case c.Padding < 0:
		return fmt.Errorf("padding must not be negative, got %d", c.Padding)
	case c.InputWidth < 1 || c.InputHeight < 1:
		return fmt.Errorf("input size must be positive, got %dx%d", c.InputWidth, c.InputHeight)
	case c.InputChannels != 1 && c.InputChannels != 3:
		return fmt.Errorf("input_channels must be 1 or 3, got %d", c.InputChannels)
	case c.Alphabet == "":
		return errors.New("alphabet must not be empty")
	}
	if _, err := classifier.ParseBackend(c.Backend); err != nil {
		return err
	}
	return nil
}

// SolverOptions returns the pipeline settings.
func (c *Config) SolverOptions() solver.Options {
	return solver.Options{
		InitialK: c.InitialK,
		Padding:  c.Padding,
		Preprocess: preprocess.Options{
			ErodeWidth:      c.ErodeWidth,
			ErodeHeight:     c.ErodeHeight,
			ErodeIterations: c.ErodeIterations,
			Invert:          c.Invert,
		},
		Segment: segment.Options{
			TargetCount:   c.TargetCount,
			MaxIterations: c.MaxIterations,
			HeightRatio:   c.HeightRatio,
		},
	}
}

// ClassifierOptions returns the backend settings.
func (c *Config) ClassifierOptions() classifier.Options {
	return classifier.Options{
		Backend:     classifier.Backend(c.Backend),
		ModelPath:   c.ModelPath,
		RuntimePath: c.OnnxRuntimePath,
		Alphabet:    classifier.ParseAlphabet(c.Alphabet),
		Shape: classifier.InputShape{
			Channels: c.InputChannels,
			Height:   c.InputHeight,
			Width:    c.InputWidth,
		},
	}
}
