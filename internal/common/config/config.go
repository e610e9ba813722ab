// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	API           APIConfig           `mapstructure:"api"`
	Session       SessionConfig       `mapstructure:"session"`
	Intake        IntakeConfig        `mapstructure:"intake"`
	Payments      PaymentsConfig      `mapstructure:"payments"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig describes the loan-management REST backend.
type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Timeout       int    `mapstructure:"timeout"`        // milliseconds
	RedirectDelay int    `mapstructure:"redirect_delay"` // milliseconds before the login redirect after a 401
	LoginPath     string `mapstructure:"login_path"`
}

// SessionConfig selects where the bearer credential lives. An empty Redis
// address keeps the token in memory for the lifetime of the process.
type SessionConfig struct {
	Redis     RedisConfig `mapstructure:"redis"`
	KeyPrefix string      `mapstructure:"key_prefix"`
	Token     string      `mapstructure:"token"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntakeConfig holds defaults for the customer intake and loan application screens.
type IntakeConfig struct {
	CurrencyCode string `mapstructure:"currency_code"`
}

// PaymentsConfig holds settings for the payment logging screen.
type PaymentsConfig struct {
	PreselectFirstDue bool `mapstructure:"preselect_first_due"`
	PageSize          int  `mapstructure:"page_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds tracing and metrics settings.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// RedisEnabled reports whether the session store should use Redis.
func (c SessionConfig) RedisEnabled() bool {
	return c.Redis.Address != ""
}

// Key returns the fully qualified storage key for a session entry.
func (c SessionConfig) Key(name string) string {
	if c.KeyPrefix == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", c.KeyPrefix, name)
}
