package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// INTAKE_ADDR is the base URL of a running intake tier, the suite is skipped when empty
	IntakeAddr string `envconfig:"INTAKE_ADDR"`
	RelayAddr  string `envconfig:"RELAY_ADDR"`
	// APPEND_LOG_PATH points to the intake append log when readable from the test host
	AppendLogPath string `envconfig:"APPEND_LOG_PATH"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
