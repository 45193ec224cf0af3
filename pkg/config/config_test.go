package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// resetForTest clears viper and the init guard and points Init at path.
func resetForTest(t *testing.T, path string) {
	t.Helper()
	viper.Reset()
	once = sync.Once{}
	initErr = nil
	old := configPath
	configPath = path
	t.Cleanup(func() {
		viper.Reset()
		once = sync.Once{}
		initErr = nil
		configPath = old
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T)
	}{
		{
			name: "load from settings.yaml",
			content: `
server:
  host: "0.0.0.0"
  port: 8081
database:
  path: "./test.db"
`,
			check: func(t *testing.T) {
				assert.Equal(t, 8081, GetInt("server.port"))
				assert.Equal(t, "0.0.0.0", GetString("server.host"))
				assert.Equal(t, "./test.db", GetString("database.path"))
			},
		},
		{
			name: "environment variable override",
			content: `
server:
  port: 8080
`,
			env: map[string]string{"EAFKIT_SERVER_PORT": "9090", "EAFKIT_EXPORT_PRECISION": "2"},
			check: func(t *testing.T) {
				assert.Equal(t, 9090, GetInt("server.port"))
				assert.Equal(t, 2, GetInt("export.precision"))
			},
		},
		{
			name: "missing config file with defaults",
			check: func(t *testing.T) {
				assert.Equal(t, 8080, GetInt("server.port"))
				assert.Equal(t, "./data/corpus.db", GetString("database.path"))
				assert.Equal(t, "ffmpeg", GetString("media.ffmpeg_path"))
				assert.Equal(t, "\t", GetString("export.delimiter"))
				assert.True(t, GetBool("document.pretty_print"))
			},
		},
		{
			name: "invalid port",
			content: `
server:
  port: 70000
`,
			wantErr: true,
		},
		{
			name: "soft values are corrected",
			content: `
export:
  precision: 42
corpus:
  workers: 0
`,
			check: func(t *testing.T) {
				assert.Equal(t, 3, GetInt("export.precision"))
				assert.Equal(t, 4, GetInt("corpus.workers"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.content != "" {
				path = writeConfig(t, tt.content)
			}
			resetForTest(t, path)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := Init()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeConfigInvalid))
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t)
			}
		})
	}
}

func TestGetConfig(t *testing.T) {
	resetForTest(t, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, Init())

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
	assert.Equal(t, 3, cfg.Export.Precision)
	assert.Equal(t, 100, cfg.Corpus.SearchLimit)
	assert.Equal(t, 120, cfg.Server.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Server.CacheTTL)
	assert.Equal(t, int64(16<<20), cfg.Server.CacheSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.Security.CORSOrigins)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				Server:   ServerConfig{Host: "localhost", Port: 8080},
				Database: DatabaseConfig{Path: "./data/corpus.db"},
			},
			wantErr: false,
		},
		{
			name:    "invalid port",
			config:  &Config{Server: ServerConfig{Host: "localhost", Port: 0}},
			wantErr: true,
		},
		{
			name: "invalid precision",
			config: &Config{
				Server: ServerConfig{Port: 8080},
				Export: ExportConfig{Precision: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8080}}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "\t", cfg.Export.Delimiter)
	assert.Equal(t, 4, cfg.Corpus.Workers)
	assert.Equal(t, 100, cfg.Corpus.SearchLimit)
}
