package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Port          string `env:"PORT" envDefault:"5000"`
	DBPath        string `env:"DB_PATH" envDefault:"finance.db"`
	Mongo         Mongo  `envPrefix:"MONGODB_"`
	JWT           JWT    `envPrefix:"JWT_"`
	LogEnv        string `env:"LOG_ENV" envDefault:"dev"`
	CORSOrigin    string `env:"CORS_ORIGIN" envDefault:"*"`
	LoginRate     int    `env:"LOGIN_RATE" envDefault:"10"` // attempts per minute per client
	SecureHeaders bool   `env:"SECURE_HEADERS" envDefault:"true"`
	AdminUser     string `env:"ADMIN_USER"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

type Mongo struct {
	URI      string `env:"URI"` // empty selects the SQLite store
	Database string `env:"DATABASE" envDefault:"finance-tracker"`
}

type JWT struct {
	Secret string        `env:"SECRET,required,notEmpty"`
	TTL    time.Duration `env:"TTL" envDefault:"168h"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if cfg.JWT.TTL <= 0 {
		return Config{}, errors.New("JWT_TTL must be positive")
	}
	if cfg.LoginRate <= 0 {
		return Config{}, errors.New("LOGIN_RATE must be positive")
	}
	return cfg, nil
}
