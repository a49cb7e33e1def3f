// Package config loads process configuration from an optional YAML file
// plus ZOTREADER_* environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Listen string `mapstructure:"listen"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	// Secret is the key material for the credential vault. The process
	// refuses to start without it.
	Secret string `mapstructure:"secret"`

	PdfCache struct {
		Dir      string `mapstructure:"dir"`
		MaxBytes int64  `mapstructure:"max_bytes"`
	} `mapstructure:"pdf_cache"`

	LogLevel string `mapstructure:"log_level"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("listen", ":8712")
	v.SetDefault("db.path", "data/zotreader.db")
	v.SetDefault("pdf_cache.dir", "data/pdf-cache")
	v.SetDefault("pdf_cache.max_bytes", int64(500<<20))
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("ZOTREADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Secret == "" {
		return Config{}, fmt.Errorf("missing config: secret (ZOTREADER_SECRET)")
	}
	return cfg, nil
}
