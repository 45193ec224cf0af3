package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Media    MediaConfig    `mapstructure:"media"`
	Export   ExportConfig   `mapstructure:"export"`
	Document DocumentConfig `mapstructure:"document"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	// RateLimit is requests per minute per client.
	RateLimit int `mapstructure:"rate_limit"`
	// CacheTTL is how long GET responses are cached. Zero disables caching.
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int64         `mapstructure:"cache_size"`
}

// DatabaseConfig contains corpus index settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// MediaConfig contains ffmpeg settings used for cutting clips
type MediaConfig struct {
	FFmpegPath string        `mapstructure:"ffmpeg_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ExportConfig controls the delimited row export
type ExportConfig struct {
	Delimiter string `mapstructure:"delimiter"`
	Precision int    `mapstructure:"precision"`
	Header    bool   `mapstructure:"header"`
}

// DocumentConfig controls how documents are written back
type DocumentConfig struct {
	PrettyPrint bool   `mapstructure:"pretty_print"`
	Indent      string `mapstructure:"indent"`
	Author      string `mapstructure:"author"`
}

type CorpusConfig struct {
	Workers     int `mapstructure:"workers"`
	SearchLimit int `mapstructure:"search_limit"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	EnableCORS  bool     `mapstructure:"enable_cors"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
