package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains client configuration parameters.
type Config struct {
	LogLevel        int     `env:"LOG_LEVEL" envDefault:"0"`
	MetricsTextfile string  `env:"METRICS_TEXTFILE"`
	API             API     `envPrefix:"API_"`
	Session         Session `envPrefix:"SESSION_"`
	Store           Store   `envPrefix:"STORE_"`
	Redis           Redis   `envPrefix:"REDIS_"`
	Minio           Minio   `envPrefix:"MINIO_"`
	DevAuth         DevAuth `envPrefix:"DEVAUTH_"`
}

// API contains ElectroBill backend parameters.
type API struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Session contains session authority parameters.
type Session struct {
	LoginPolicy string `env:"LOGIN_POLICY" envDefault:"last-response-wins"`
}

// Store selects and configures the persistent store backend.
type Store struct {
	Backend   string `env:"BACKEND" envDefault:"file"`
	FilePath  string `env:"FILE_PATH" envDefault:".electrobill/session.json"`
	Namespace string `env:"NAMESPACE" envDefault:"default"`
}

// Redis contains Redis store parameters.
type Redis struct {
	URL string `env:"URL" envDefault:"redis://localhost:6379/0"`
}

// Minio contains object storage parameters.
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"electrobill-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"electrobill-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"electrobill-sessions"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// DevAuth contains development authentication endpoint parameters.
type DevAuth struct {
	Addr               string        `env:"ADDR" envDefault:":8080"`
	EnableHTTPS        bool          `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string        `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string        `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"devsecret"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	UsersFile          string        `env:"USERS_FILE"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
