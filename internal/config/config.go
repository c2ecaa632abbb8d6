package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	Gateway    GatewayConfig   `mapstructure:"gateway"`
	Dispatch   DispatchConfig  `mapstructure:"dispatch"`
	Verify     VerifyConfig    `mapstructure:"verify"`
	Admin      AdminConfig     `mapstructure:"admin"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Log        LogConfig       `mapstructure:"log"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

// StatusCodes maps the gateway's numeric delivery stages to local statuses.
// The enumeration belongs to the gateway and may change between versions, so
// it is configuration, never a literal in the core.
type StatusCodes struct {
	Delivered int `mapstructure:"delivered"`
	Read      int `mapstructure:"read"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"`
}

type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	TimeoutMs   int           `mapstructure:"timeout_ms"`
	WebhookURL  string        `mapstructure:"webhook_url"`
	CountryCode string        `mapstructure:"country_code"`
	StatusCodes StatusCodes   `mapstructure:"status_codes"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

type DispatchConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type VerifyConfig struct {
	ProbeDelayMs int `mapstructure:"probe_delay_ms"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (ZAPBLAST_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (ZAPBLAST_*)
	v.SetEnvPrefix("ZAPBLAST")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
