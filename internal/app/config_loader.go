package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

// flagKeys maps command-line flags onto config keys
var flagKeys = map[string]string{
	"host":        "server.host",
	"port":        "server.port",
	"dir":         "download.dir",
	"cookies":     "download.cookie_file",
	"ytdlp":       "download.ytdlp_binary",
	"origin":      "cors.allowed_origin",
	"log-level":   "logging.level",
	"log-format":  "logging.format",
	"logs-dir":    "logging.logs_dir",
	"notify":      "notification.enabled",
	"transcripts": "download.transcripts",
}

// LoadConfig loads configuration from file, .env, environment and flags,
// in increasing order of precedence. flags may be nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.playlist-plunge")
		v.AddConfigPath("/etc/playlist-plunge")
	}

	v.SetEnvPrefix("PLUNGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The browser client's origin keeps its conventional name
	if err := v.BindEnv("cors.allowed_origin", "PLUNGE_CORS_ALLOWED_ORIGIN", "FRONTEND_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("cors.allowed_origin", config.CORS.AllowedOrigin)
	v.SetDefault("download.dir", config.Download.Dir)
	v.SetDefault("download.cookie_file", config.Download.CookieFile)
	v.SetDefault("download.ytdlp_binary", config.Download.YTDLPBinary)
	v.SetDefault("download.output_template", config.Download.OutputTemplate)
	v.SetDefault("download.extra_args", config.Download.ExtraArgs)
	v.SetDefault("download.transcripts", config.Download.Transcripts)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
	v.SetDefault("logging.logs_dir", config.Logging.LogsDir)
}

// loadDotEnv exports the variables of an optional dotenv file into the
// process environment without overriding variables that are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		os.Setenv(name, env.GetString(key))
	}
	return nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.Dir = expandPath(config.Download.Dir)
	config.Download.CookieFile = expandPath(config.Download.CookieFile)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.Dir == "" {
		return fmt.Errorf("download directory not configured")
	}

	if config.Download.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.Logging.LogsDir == "" {
		return fmt.Errorf("logs directory not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server.host", config.Server.Host)
	v.Set("server.port", config.Server.Port)
	v.Set("cors.allowed_origin", config.CORS.AllowedOrigin)
	v.Set("download.dir", config.Download.Dir)
	v.Set("download.cookie_file", config.Download.CookieFile)
	v.Set("download.ytdlp_binary", config.Download.YTDLPBinary)
	v.Set("download.output_template", config.Download.OutputTemplate)
	v.Set("download.extra_args", config.Download.ExtraArgs)
	v.Set("download.transcripts", config.Download.Transcripts)
	v.Set("notification.enabled", config.Notification.Enabled)
	v.Set("notification.method", config.Notification.Method)
	v.Set("logging.level", config.Logging.Level)
	v.Set("logging.format", config.Logging.Format)
	v.Set("logging.output_path", config.Logging.OutputPath)
	v.Set("logging.logs_dir", config.Logging.LogsDir)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
