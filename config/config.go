package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/chaos-io/logokit/logo"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server     Server     `yaml:"server"`
	Store      Store      `yaml:"store"`
	Processing Processing `yaml:"processing"`
	Log        Log        `yaml:"log"`
}

type Server struct {
	Addr        string `yaml:"addr"`
	ReleaseMode bool   `yaml:"release_mode"`
}

// Store 结果在内存里保留多久，SweepSpec 为 cron 表达式
type Store struct {
	TTL       time.Duration `yaml:"ttl"`
	SweepSpec string        `yaml:"sweep_spec"`
}

type Processing struct {
	Workers         int      `yaml:"workers"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	MaxDimension    int      `yaml:"max_dimension"`
	AntiAliasPasses int      `yaml:"anti_alias_passes"`
	Soften          float64  `yaml:"soften"`
	Tints           []string `yaml:"tints"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: Server{Addr: ":8081"},
		Store: Store{
			TTL:       30 * time.Minute,
			SweepSpec: "@every 1m",
		},
		Processing: Processing{
			MaxFileSize: logo.DefaultMaxFileSize,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load 读取 YAML，未出现的字段保持默认值；path 为空时直接返回默认配置
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Store.TTL <= 0 {
		errs = append(errs, fmt.Errorf("store.ttl must be positive, got %s", c.Store.TTL))
	}
	if _, err := cron.ParseStandard(c.Store.SweepSpec); err != nil {
		errs = append(errs, fmt.Errorf("store.sweep_spec: %w", err))
	}
	if c.Processing.Workers < 0 {
		errs = append(errs, fmt.Errorf("processing.workers must not be negative, got %d", c.Processing.Workers))
	}
	if c.Processing.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("processing.max_file_size must not be negative, got %d", c.Processing.MaxFileSize))
	}
	if c.Processing.MaxDimension < 0 {
		errs = append(errs, fmt.Errorf("processing.max_dimension must not be negative, got %d", c.Processing.MaxDimension))
	}
	if c.Processing.AntiAliasPasses < 0 {
		errs = append(errs, fmt.Errorf("processing.anti_alias_passes must not be negative, got %d", c.Processing.AntiAliasPasses))
	}
	if c.Processing.Soften < 0 {
		errs = append(errs, fmt.Errorf("processing.soften must not be negative, got %g", c.Processing.Soften))
	}
	if _, err := logo.ParseTints(c.Processing.Tints); err != nil {
		errs = append(errs, fmt.Errorf("processing.tints: %w", err))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
