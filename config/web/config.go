package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port            int    `env:"PORT" env-default:"8080"`
	JWTSecret       string `env:"JWT_SECRET"`
	LogLevel        string `env:"LOG_LEVEL" env-default:"debug"`
	MeetingsService ServiceConfig
}

type ServiceConfig struct {
	Port int    `env:"MEETINGS_PORT" env-default:"9090"`
	Url  string `env:"MEETINGS_URL" env-default:"localhost"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}
	return &cfg
}
