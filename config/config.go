/*
Package config loads application configuration with viper.

SOURCES (later wins):
  1. defaults below
  2. optional YAML file (Load(path), path may be empty)
  3. environment variables prefixed PAYROLL_, dots as underscores
     (PAYROLL_SERVER_PORT, PAYROLL_PAYROLL_STANDARD_MONTHLY_HOURS)

REQUIRED:
  payroll.standard_monthly_hours has no default. Validate rejects a missing
  or non-positive value; the compute command accepts zero for inputs without
  overtime.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/payroll"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Payroll  PayrollConfig
	Schedule ScheduleConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

type DatabaseConfig struct {
	Path string
}

type PayrollConfig struct {
	StandardMonthlyHours int
	OvertimeMultiplier   string
	Rounding             string
	TaxCode              string
	TaxBase              string
	Workers              int
}

type ScheduleConfig struct {
	Enabled  bool
	Interval time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.path", "payroll.db")
	v.SetDefault("payroll.overtime_multiplier", "1.5")
	v.SetDefault("payroll.rounding", string(money.RoundHalfUp))
	v.SetDefault("payroll.tax_code", payroll.DefaultTaxCode)
	v.SetDefault("payroll.tax_base", string(payroll.TaxBaseIndependent))
	v.SetDefault("payroll.workers", 4)
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.interval", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PAYROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:        v.GetInt("server.port"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Payroll: PayrollConfig{
			StandardMonthlyHours: v.GetInt("payroll.standard_monthly_hours"),
			OvertimeMultiplier:   v.GetString("payroll.overtime_multiplier"),
			Rounding:             v.GetString("payroll.rounding"),
			TaxCode:              v.GetString("payroll.tax_code"),
			TaxBase:              v.GetString("payroll.tax_base"),
			Workers:              v.GetInt("payroll.workers"),
		},
		Schedule: ScheduleConfig{
			Enabled:  v.GetBool("schedule.enabled"),
			Interval: v.GetDuration("schedule.interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}, nil
}

// Validate checks what the server needs before it starts.
func (c *Config) Validate() error {
	if c.Payroll.StandardMonthlyHours <= 0 {
		return payroll.NewMissingConfigurationError("payroll.standard_monthly_hours",
			"standard monthly hours must be configured and positive")
	}
	if c.Payroll.Workers <= 0 {
		return payroll.NewValidationError("payroll.workers", "workers must be positive")
	}
	if c.Schedule.Enabled && c.Schedule.Interval <= 0 {
		return payroll.NewValidationError("schedule.interval", "schedule interval must be positive")
	}
	_, err := c.EngineConfig()
	return err
}

// EngineConfig converts the payroll section for payroll.NewEngine.
func (c *Config) EngineConfig() (payroll.Config, error) {
	multiplier, err := decimal.NewFromString(c.Payroll.OvertimeMultiplier)
	if err != nil {
		return payroll.Config{}, payroll.NewValidationError("payroll.overtime_multiplier",
			"invalid overtime multiplier %q", c.Payroll.OvertimeMultiplier)
	}
	rounding, err := money.ParseRoundingMode(c.Payroll.Rounding)
	if err != nil {
		return payroll.Config{}, payroll.NewValidationError("payroll.rounding", "%s", err.Error())
	}
	taxBase, err := payroll.ParseTaxBasePolicy(c.Payroll.TaxBase)
	if err != nil {
		return payroll.Config{}, err
	}
	return payroll.Config{
		StandardMonthlyHours: c.Payroll.StandardMonthlyHours,
		OvertimeMultiplier:   multiplier,
		Rounding:             rounding,
		TaxCode:              c.Payroll.TaxCode,
		TaxBase:              taxBase,
	}, nil
}
