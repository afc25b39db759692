package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	Tokens     `yaml:"tokens"`
	Postgres   `yaml:"postgres"`
	RabbitMQ   `yaml:"rabbitmq"`
	SMTP       `yaml:"smtp"`
	Listener   `yaml:"listener"`
	HTTPServer `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Tokens struct {
	Secret          string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	Issuer          string        `yaml:"issuer" env-default:"club_service"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env-default:"168h"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl" env-default:"10m"`
	ResetCodeTTL    time.Duration `yaml:"reset_code_ttl" env-default:"10m"`
	CookieName      string        `yaml:"cookie_name" env-default:"refresh_token"`
	CookiePath      string        `yaml:"cookie_path" env-default:"/api"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"club_emails"`
}

type SMTP struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env-default:"no-reply@localhost"`
}

type Listener struct {
	Channel     string        `yaml:"channel" env-default:"club_events"`
	WaitTimeout time.Duration `yaml:"wait_timeout" env-default:"5s"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return &cfg
}
