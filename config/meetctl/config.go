package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Addr      string `env:"MEETINGS_ADDR" env-default:"localhost:9090"`
	Token     string `env:"MEETINGS_TOKEN"`
	JWTSecret string `env:"JWT_SECRET"`
}

// Load reads the environment. Unlike the services it returns the error so
// the CLI can print it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
