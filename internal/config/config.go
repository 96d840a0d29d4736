package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis        Redis  `yaml:"redis"`
	JWTSecretKey string `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
	Game         Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game holds the default rule set applied to newly created games.
type Game struct {
	TokensEnabled bool `yaml:"tokens-enabled" env:"GAME_TOKENS_ENABLED" env-default:"true"`
	StartTokens   int  `yaml:"start-tokens" env:"GAME_START_TOKENS" env-default:"2"`
	MaxTokens     int  `yaml:"max-tokens" env:"GAME_MAX_TOKENS" env-default:"5"`
	WinCondition  int  `yaml:"win-condition" env:"GAME_WIN_CONDITION" env-default:"10"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
