package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MONITORCAPTURE_FPS.
const EnvPrefix = "MONITORCAPTURE"

type Config struct {
	FPS                    int    `mapstructure:"fps"`
	Backend                string `mapstructure:"backend"`
	SettingsFile           string `mapstructure:"settings_file"`
	LogFormat              string `mapstructure:"log_format"`
	LogLevel               string `mapstructure:"log_level"`
	LogFile                string `mapstructure:"log_file"`
	LogMaxSizeMB           int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups          int    `mapstructure:"log_max_backups"`
	HTTPAddr               string `mapstructure:"http_addr"`
	PreviewQuality         int    `mapstructure:"preview_quality"`
	PreviewMaxFPS          int    `mapstructure:"preview_max_fps"`
	UnhealthyAfterAttempts int    `mapstructure:"unhealthy_after_attempts"`
}

func Default() *Config {
	return &Config{
		FPS:                    60,
		Backend:                "auto",
		LogFormat:              "text",
		LogLevel:               "info",
		LogMaxSizeMB:           20,
		LogMaxBackups:          3,
		HTTPAddr:               "127.0.0.1:9750",
		PreviewQuality:         70,
		PreviewMaxFPS:          10,
		UnhealthyAfterAttempts: 5,
	}
}

// Load reads cfgFile, or monitor-capture.yaml from the config directory or
// the working directory. A missing default file is not an error; values
// then come from defaults and the environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("monitor-capture")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent
// from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fps", cfg.FPS)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("settings_file", cfg.SettingsFile)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_max_size_mb", cfg.LogMaxSizeMB)
	v.SetDefault("log_max_backups", cfg.LogMaxBackups)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("preview_quality", cfg.PreviewQuality)
	v.SetDefault("preview_max_fps", cfg.PreviewMaxFPS)
	v.SetDefault("unhealthy_after_attempts", cfg.UnhealthyAfterAttempts)
}

// Dir is the platform configuration directory.
func Dir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "MonitorCapture")
	case "darwin":
		return "/Library/Application Support/MonitorCapture"
	default:
		return "/etc/monitor-capture"
	}
}
