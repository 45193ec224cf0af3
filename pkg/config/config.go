package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g. EAFKIT_SERVER_PORT.
const EnvPrefix = "EAFKIT"

var (
	once    sync.Once
	initErr error

	// configPath is a variable so tests can point it at a temp file.
	configPath = filepath.Clean("./config/settings.yaml")
)

// Init initializes the configuration system.
// This should be called once at application startup.
func Init() error {
	once.Do(func() {
		setDefaults()

		viper.SetEnvPrefix(EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			// A missing file means defaults and env vars only.
			var notFound viper.ConfigFileNotFoundError
			if !os.IsNotExist(err) && !errors.As(err, &notFound) {
				initErr = apperrors.Wrapf(err, apperrors.ErrCodeConfigInvalid, "reading config file %s", configPath)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "invalid configuration")
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct.
// Init() must be called before using this.
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "unmarshaling config")
	}
	return &config, nil
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// validate checks the live Viper values and auto-corrects the soft ones.
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if len(viper.GetString("export.delimiter")) == 0 {
		viper.Set("export.delimiter", "\t")
	}
	if p := viper.GetInt("export.precision"); p < 0 || p > 9 {
		viper.Set("export.precision", 3)
	}
	if viper.GetInt("corpus.workers") <= 0 {
		viper.Set("corpus.workers", 4)
	}
	if viper.GetInt("corpus.search_limit") <= 0 {
		viper.Set("corpus.search_limit", 100)
	}
	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Export.Delimiter == "" {
		c.Export.Delimiter = "\t"
	}
	if c.Export.Precision < 0 || c.Export.Precision > 9 {
		return fmt.Errorf("invalid export precision: %d", c.Export.Precision)
	}
	if c.Corpus.Workers <= 0 {
		c.Corpus.Workers = 4
	}
	if c.Corpus.SearchLimit <= 0 {
		c.Corpus.SearchLimit = 100
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.rate_limit", 120)
	viper.SetDefault("server.cache_ttl", 30*time.Second)
	viper.SetDefault("server.cache_size", 16<<20)

	// Database defaults
	viper.SetDefault("database.path", "./data/corpus.db")
	viper.SetDefault("database.verbose", false)

	// Media defaults
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.timeout", 5*time.Minute)

	// Export defaults
	viper.SetDefault("export.delimiter", "\t")
	viper.SetDefault("export.precision", 3)
	viper.SetDefault("export.header", false)

	// Document defaults
	viper.SetDefault("document.pretty_print", true)
	viper.SetDefault("document.indent", "  ")
	viper.SetDefault("document.author", "")

	// Corpus defaults
	viper.SetDefault("corpus.workers", 4)
	viper.SetDefault("corpus.search_limit", 100)

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}
