package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	ServerPort  int

	DatabaseDbPath       string
	DatabaseCacheAddress string
	DatabaseCachePort    int

	// Remote store call policy. Fetches are retried, mutations never are.
	RemoteCallTimeout  time.Duration
	FetchRetryAttempts int
	FetchRetryBackoff  time.Duration
}

func InitConfig() (Config, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("server_port", 8080)
	v.SetDefault("database_db_path", "data/timeoff.db")
	v.SetDefault("database_cache_address", "localhost")
	v.SetDefault("database_cache_port", 6379)
	v.SetDefault("remote_call_timeout", "5s")
	v.SetDefault("fetch_retry_attempts", 3)
	v.SetDefault("fetch_retry_backoff", "250ms")

	v.SetEnvPrefix("TIMEOFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	return Config{
		Environment:          v.GetString("environment"),
		ServerPort:           v.GetInt("server_port"),
		DatabaseDbPath:       v.GetString("database_db_path"),
		DatabaseCacheAddress: v.GetString("database_cache_address"),
		DatabaseCachePort:    v.GetInt("database_cache_port"),
		RemoteCallTimeout:    v.GetDuration("remote_call_timeout"),
		FetchRetryAttempts:   v.GetInt("fetch_retry_attempts"),
		FetchRetryBackoff:    v.GetDuration("fetch_retry_backoff"),
	}, nil
}
