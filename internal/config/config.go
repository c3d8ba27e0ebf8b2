package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lukefredrickson/nfact-dashboard/internal/dataset"
	"github.com/lukefredrickson/nfact-dashboard/internal/source"
)

// Global configuration structure.
type Global struct {
	// Input assets
	DataPath       string `mapstructure:"data_path" yaml:"data_path"`
	BoundariesPath string `mapstructure:"boundaries_path" yaml:"boundaries_path"`
	CatalogPath    string `mapstructure:"catalog_path" yaml:"catalog_path"`
	Sheet          string `mapstructure:"sheet" yaml:"sheet"`

	// Column roles in the data table
	EntityColumn string `mapstructure:"entity_column" yaml:"entity_column"`
	GeoColumn    string `mapstructure:"geo_column" yaml:"geo_column"`
	StartColumn  string `mapstructure:"start_column" yaml:"start_column"`
	EndColumn    string `mapstructure:"end_column" yaml:"end_column"`
	GeoProperty  string `mapstructure:"geo_property" yaml:"geo_property"`

	// Rendering
	Title          string   `mapstructure:"title" yaml:"title"`
	MapMetric      string   `mapstructure:"map_metric" yaml:"map_metric"`
	MapAgg         string   `mapstructure:"map_agg" yaml:"map_agg"`
	CompareMetrics []string `mapstructure:"compare_metrics" yaml:"compare_metrics"`

	// Dashboard server
	ListenAddr    string `mapstructure:"listen_addr" yaml:"listen_addr"`
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	MaxSessions   int    `mapstructure:"max_sessions" yaml:"max_sessions"`

	// Remote assets
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	S3Region       string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Endpoint     string `mapstructure:"s3_endpoint" yaml:"s3_endpoint"`
	S3PathStyle    bool   `mapstructure:"s3_path_style" yaml:"s3_path_style"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"data_path", "boundaries_path", "catalog_path", "sheet",
	"entity_column", "geo_column", "start_column", "end_column", "geo_property",
	"title", "map_metric", "map_agg", "compare_metrics",
	"listen_addr", "session_ttl_min", "max_sessions",
	"http_timeout_sec", "s3_region", "s3_endpoint", "s3_path_style",
	"log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "data/db.csv")
	v.SetDefault("boundaries_path", "data/gz_2010_us_040_00_500k.json")
	v.SetDefault("catalog_path", "")
	v.SetDefault("sheet", "")
	v.SetDefault("entity_column", "study_site")
	v.SetDefault("geo_column", "state")
	v.SetDefault("start_column", "start_date")
	v.SetDefault("end_column", "end_date")
	v.SetDefault("geo_property", "NAME")
	v.SetDefault("title", "United States Food Insecurity")
	v.SetDefault("map_metric", "overall_after")
	v.SetDefault("map_agg", "mean")
	v.SetDefault("compare_metrics", []string{"overall_before", "overall_after", "overall_diff"})
	v.SetDefault("listen_addr", ":8050")
	v.SetDefault("session_ttl_min", 30)
	v.SetDefault("max_sessions", 1000)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_path_style", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// DefaultPath returns ~/.nfact/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".nfact", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.nfact/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("NFACT")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// DatasetOptions maps the configuration onto loader options.
func (c *Global) DatasetOptions() dataset.Options {
	return dataset.Options{
		Path:         c.DataPath,
		Sheet:        c.Sheet,
		EntityColumn: c.EntityColumn,
		GeoColumn:    c.GeoColumn,
		StartColumn:  c.StartColumn,
		EndColumn:    c.EndColumn,
		Source:       c.SourceOptions(),
	}
}

// SourceOptions maps the remote-asset settings.
func (c *Global) SourceOptions() source.Options {
	return source.Options{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		S3Region:    c.S3Region,
		S3Endpoint:  c.S3Endpoint,
		S3PathStyle: c.S3PathStyle,
	}
}

// SessionTTL is the idle lifetime of a dashboard session.
func (c *Global) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}
