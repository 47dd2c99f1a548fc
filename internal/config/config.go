package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tanq16/ytpull/internal/utils"
)

// Config is the merged view of defaults, ytpull.yaml, YTPULL_* environment
// variables and command-line flags (highest wins).
type Config struct {
	Output  string
	Workers int
	Quality string
	Audio   bool
	Debug   bool
	Retries int
	Backoff time.Duration
	Proxy   string
	Headers []string
	Tools   struct {
		Ytdlp  string
		FFmpeg string
	}
	S3 struct {
		Bucket  string
		Prefix  string
		Profile string
	}
}

// Overrides carries the flags the user actually set; nil means unset.
type Overrides struct {
	ConfigFile string
	Values     map[string]any
}

func defaults(v *viper.Viper) {
	v.SetDefault("output", utils.DefaultOutputRoot)
	v.SetDefault("workers", utils.DefaultWorkers)
	v.SetDefault("quality", "best")
	v.SetDefault("audio", false)
	v.SetDefault("debug", false)
	v.SetDefault("retries", utils.DefaultRetries)
	v.SetDefault("backoff", utils.DefaultBackoff)
	v.SetDefault("proxy", "")
	v.SetDefault("headers", []string{})
	v.SetDefault("tools.ytdlp", "")
	v.SetDefault("tools.ffmpeg", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "ytpull")
	v.SetDefault("s3.profile", "")
}

// Load reads configuration from the optional config file, the environment
// and the given overrides.
func Load(o Overrides) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YTPULL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", o.ConfigFile, err)
		}
	} else {
		v.SetConfigName("ytpull")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ytpull"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	for key, value := range o.Values {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Workers = utils.ClampWorkers(cfg.Workers)
	if cfg.Retries <= 0 {
		cfg.Retries = utils.DefaultRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = utils.DefaultBackoff
	}
	if cfg.Output == "" {
		cfg.Output = utils.DefaultOutputRoot
	}
	return cfg, nil
}
