package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the driver-specific connection string. For sqlite the
// database field is the file path (":memory:" allowed).
func (d *DatabaseConfig) GetDSN() string {
	switch d.Driver {
	case "postgres":
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			d.Host, d.Port, d.Username, d.Password, d.Database, sslMode)
	case "sqlite":
		return d.Database
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type SubscriptionConfig struct {
	TrialDays int `mapstructure:"trial_days" validate:"min=1"`
}

type QuotaConfig struct {
	WalletLimit           int    `mapstructure:"wallet_limit" validate:"min=0"`
	DebtLimit             int    `mapstructure:"debt_limit" validate:"min=0"`
	ReportDailyLimit      int    `mapstructure:"report_daily_limit" validate:"min=0"`
	ReportWindowHours     int    `mapstructure:"report_window_hours" validate:"min=24"`
	ReportCacheMaxEntries int    `mapstructure:"report_cache_max_entries" validate:"min=1"`
	CounterBackend        string `mapstructure:"counter_backend" validate:"oneof=memory redis"`
}

type SchedulerConfig struct {
	Timezone            string `mapstructure:"timezone"`
	TrialExpiryCron     string `mapstructure:"trial_expiry_cron" validate:"required"`
	StartupDelaySeconds int    `mapstructure:"startup_delay_seconds" validate:"min=0"`
}

type MigrationConfig struct {
	Strategy    string `mapstructure:"strategy" validate:"oneof=auto goose"`
	ScriptsPath string `mapstructure:"scripts_path"`
}
