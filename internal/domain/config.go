package domain

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Download     DownloadConfig     `mapstructure:"download"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// CORSConfig contains cross-origin configuration
type CORSConfig struct {
	AllowedOrigin string `mapstructure:"allowed_origin"` // the browser client's origin, e.g. http://localhost:5173
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	Dir            string   `mapstructure:"dir"`
	CookieFile     string   `mapstructure:"cookie_file"`
	YTDLPBinary    string   `mapstructure:"ytdlp_binary"`
	OutputTemplate string   `mapstructure:"output_template"`
	ExtraArgs      []string `mapstructure:"extra_args"`
	Transcripts    bool     `mapstructure:"transcripts"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 3000,
		},
		CORS: CORSConfig{
			AllowedOrigin: "",
		},
		Download: DownloadConfig{
			Dir:            "$HOME/Downloads/PlaylistPlunge",
			CookieFile:     "./cookies.txt",
			YTDLPBinary:    "yt-dlp",
			OutputTemplate: "%(title)s.%(ext)s",
			Transcripts:    true,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.playlist-plunge/logs",
		},
	}
}
