package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	GRPCPort  int    `env:"GRPC_PORT" env-default:"9090"`
	JWTSecret string `env:"JWT_SECRET"`
	Log       LogConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Audio     AudioConfig
	Gemini    GeminiConfig
	Tasks     TasksConfig
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	JSON  bool   `env:"LOG_JSON" env-default:"false"`
}

type StorageConfig struct {
	// memory, sqlite, postgres or firestore
	Driver  string `env:"STORAGE_DRIVER" env-default:"sqlite"`
	DataDir string `env:"DATA_DIR" env-default:"data"`
}

type DatabaseConfig struct {
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Name     string `env:"DB_NAME" env-default:"meetings"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

type AudioConfig struct {
	// local or gcs
	Backend string `env:"AUDIO_BACKEND" env-default:"local"`
	Dir     string `env:"AUDIO_DIR" env-default:"temp/meetings"`
	Bucket  string `env:"AUDIO_BUCKET"`
	Prefix  string `env:"AUDIO_PREFIX" env-default:"meetings"`
}

type GeminiConfig struct {
	ProjectID string `env:"GCP_PROJECT_ID"`
	Region    string `env:"VERTEX_AI_REGION" env-default:"us-central1"`
	Model     string `env:"GEMINI_MODEL" env-default:"gemini-3.0-flash"`
}

type TasksConfig struct {
	// store keeps tasks next to meetings; http forwards them to a task service
	Backend string `env:"TASKS_BACKEND" env-default:"store"`
	Service ServiceConfig
}

type ServiceConfig struct {
	Port int    `env:"TASKS_PORT"`
	Url  string `env:"TASKS_URL"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return &cfg
}
