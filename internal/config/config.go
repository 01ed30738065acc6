package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// Config is the top-level pipeline configuration.
type Config struct {
	InputDir      string        `yaml:"input_dir"`
	OutputDir     string        `yaml:"output_dir"`
	StageDelay    time.Duration `yaml:"stage_delay"`
	Workers       int           `yaml:"workers"`
	FailFast      bool          `yaml:"fail_fast"`
	InputEncoding string        `yaml:"input_encoding"`
	LogLevel      string        `yaml:"log_level"`
	DB            DBConfig      `yaml:"db"`
	API           APIConfig     `yaml:"api"`
}

type DBConfig struct {
	Addr         string `yaml:"addr"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxIdleTime  string `yaml:"max_idle_time"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the optional YAML file at path, then the optional .env file in the
// working directory, then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.InputDir = env.GetString("PIPELINE_INPUT_DIR", c.InputDir)
	c.OutputDir = env.GetString("PIPELINE_OUTPUT_DIR", c.OutputDir)
	c.StageDelay = env.GetDuration("PIPELINE_STAGE_DELAY", c.StageDelay)
	c.Workers = env.GetInt("PIPELINE_WORKERS", c.Workers)
	c.FailFast = env.GetBool("PIPELINE_FAIL_FAST", c.FailFast)
	c.InputEncoding = env.GetString("PIPELINE_INPUT_ENCODING", c.InputEncoding)
	c.LogLevel = env.GetString("PIPELINE_LOG_LEVEL", c.LogLevel)

	c.DB.Addr = env.GetString("DB_ADDR", c.DB.Addr)
	c.DB.MaxOpenConns = env.GetInt("DB_MAX_OPEN_CONNS", c.DB.MaxOpenConns)
	c.DB.MaxIdleConns = env.GetInt("DB_MAX_IDLE_CONNS", c.DB.MaxIdleConns)
	c.DB.MaxIdleTime = env.GetString("DB_MAX_IDLE_TIME", c.DB.MaxIdleTime)

	c.API.Addr = env.GetString("ADDR", c.API.Addr)
}

func (c *Config) applyDefaults() {
	if c.InputDir == "" {
		c.InputDir = "input"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.InputEncoding == "" {
		c.InputEncoding = EncodingUTF8
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DB.MaxOpenConns == 0 {
		c.DB.MaxOpenConns = 25
	}
	if c.DB.MaxIdleConns == 0 {
		c.DB.MaxIdleConns = 25
	}
	if c.DB.MaxIdleTime == "" {
		c.DB.MaxIdleTime = "15m"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.InputEncoding {
	case EncodingUTF8, EncodingWindows1252:
	default:
		return fmt.Errorf("unsupported input encoding %q (expected %s or %s)", c.InputEncoding, EncodingUTF8, EncodingWindows1252)
	}
	if c.StageDelay < 0 {
		return fmt.Errorf("stage_delay must not be negative, got %s", c.StageDelay)
	}
	return nil
}
