package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("CARTTALK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without CARTTALK_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "CARTTALK_HTTP_PORT")
	viper.BindEnv("database.url", "DATABASE_URL", "CARTTALK_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "CARTTALK_REDIS_URL")
	viper.BindEnv("queue.url", "QUEUE_URL", "CARTTALK_QUEUE_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET", "CARTTALK_JWT_SECRET")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY", "CARTTALK_GEMINI_API_KEY")
	viper.BindEnv("notification.email.api_key", "SENDGRID_API_KEY")
	viper.BindEnv("app.environment", "CARTTALK_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
