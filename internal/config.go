package internal

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// IntakeConfig configures the HTTP tier. Zero timeouts disable the deadline.
type IntakeConfig struct {
	Host             string        `env:"INTAKE_HOST,default=0.0.0.0"`
	Port             int           `env:"INTAKE_PORT,default=3000"`
	RelayAddr        string        `env:"RELAY_ADDR,default=127.0.0.1:5000"`
	StaticDir        string        `env:"STATIC_DIR,default=front"`
	AppendLogPath    string        `env:"APPEND_LOG_PATH,default=storage/data.json"`
	RelayDialTimeout time.Duration `env:"RELAY_DIAL_TIMEOUT,default=5s"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT,default=0s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT,default=0s"`
	MetricsAddr      string        `env:"INTAKE_METRICS_ADDR"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
}

func (c IntakeConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RelayConfig configures the TCP tier.
type RelayConfig struct {
	Host           string        `env:"RELAY_HOST,default=0.0.0.0"`
	Port           int           `env:"RELAY_PORT,default=5000"`
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	ReadTimeout    time.Duration `env:"RELAY_READ_TIMEOUT,default=0s"`
	HealthAddr     string        `env:"HEALTH_ADDR"`
	MetricsAddr    string        `env:"RELAY_METRICS_ADDR"`
	LogLevel       string        `env:"LOG_LEVEL,default=INFO"`
}

func (c RelayConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SupervisorConfig configures the launcher of both tiers.
// Children inherit the supervisor environment, so one .env configures all three.
type SupervisorConfig struct {
	IntakeBinPath   string        `env:"INTAKE_BIN_PATH,required=true"`
	RelayBinPath    string        `env:"RELAY_BIN_PATH,required=true"`
	RelayHealthAddr string        `env:"RELAY_HEALTH_ADDR"`
	MonitorInterval time.Duration `env:"MONITOR_INTERVAL,default=10s"`
	ShutdownGrace   time.Duration `env:"SHUTDOWN_GRACE,default=5s"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
}

// LoadConfig reads an optional .env file then fills cfg from the environment.
// Variables already set in the environment win over the file.
func LoadConfig[T any](cfg *T) error {
	_ = godotenv.Load()
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}
