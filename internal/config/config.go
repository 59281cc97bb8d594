package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Defaults for keys that are safe to omit from config.yml.
const (
	defaultPort         = "8080"
	defaultLogLevel     = "info"
	defaultDBPath       = "app.db"
	defaultBaseURL      = "https://api.golioth.io/v1"
	defaultBubblesGrace = 15 * time.Second
	defaultUsersShut    = 30 * time.Minute
	// Bench setups shorten this to a few seconds; 30 minutes is the
	// production cleaning cycle.
	defaultCleanShut = 30 * time.Minute
)

// Golioth holds the device-cloud connection settings.
type Golioth struct {
	BaseURL       string
	ProjectID     string
	APIKey        string
	DefaultDevice string
}

// Timers holds the scheduling intervals used by the safety engine and the
// command dispatcher.
type Timers struct {
	BubblesGrace  time.Duration // heater-off to bubbles-off grace
	UsersShutdown time.Duration // default auto-off after a user turns the unit on
	CleanShutdown time.Duration // auto-off for a filter cleaning cycle
}

// Config is the process-wide configuration. It is built once at startup and
// passed by reference; nothing mutates it afterwards.
type Config struct {
	Port     string
	LogLevel string
	DBPath   string
	Golioth  Golioth
	Timers   Timers
}

// Load reads configs/config.yml and environment overrides into a Config.
// GOLIOTH_API_KEY always wins over the file so the secret can stay out of it.
func Load() (*Config, error) {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("port", defaultPort)
	viper.SetDefault("log.level", defaultLogLevel)
	viper.SetDefault("db.path", defaultDBPath)
	viper.SetDefault("golioth.base_url", defaultBaseURL)
	viper.SetDefault("timers.bubbles_grace", defaultBubblesGrace)
	viper.SetDefault("timers.users_shutdown", defaultUsersShut)
	viper.SetDefault("timers.clean_shutdown", defaultCleanShut)

	_ = viper.BindEnv("golioth.api_key", "GOLIOTH_API_KEY")
	_ = viper.BindEnv("golioth.project_id", "GOLIOTH_PROJECT_ID")
	_ = viper.BindEnv("golioth.default_device", "GOLIOTH_DEFAULT_DEVICE")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Config file is optional; env + defaults may be enough.
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Port:     viper.GetString("port"),
		LogLevel: viper.GetString("log.level"),
		DBPath:   viper.GetString("db.path"),
		Golioth: Golioth{
			BaseURL:       viper.GetString("golioth.base_url"),
			ProjectID:     viper.GetString("golioth.project_id"),
			APIKey:        viper.GetString("golioth.api_key"),
			DefaultDevice: viper.GetString("golioth.default_device"),
		},
		Timers: Timers{
			BubblesGrace:  viper.GetDuration("timers.bubbles_grace"),
			UsersShutdown: viper.GetDuration("timers.users_shutdown"),
			CleanShutdown: viper.GetDuration("timers.clean_shutdown"),
		},
	}

	if cfg.Golioth.APIKey == "" {
		return nil, errors.New("golioth.api_key is not set (config or GOLIOTH_API_KEY)")
	}
	if cfg.Golioth.ProjectID == "" {
		return nil, errors.New("golioth.project_id is not set (config or GOLIOTH_PROJECT_ID)")
	}
	return cfg, nil
}
