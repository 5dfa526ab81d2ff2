package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Court    CourtConfig    `yaml:"court"`
	Cache    CacheConfig    `yaml:"cache"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	ReservationsTopic string   `yaml:"reservations_topic"`
	GroupID           string   `yaml:"group_id"`
}

// CourtConfig describes the single bookable resource: its display name,
// the fixed list of hour-slot labels and how far ahead the schedule is
// shown. A second court means a second configured instance, not new code.
type CourtConfig struct {
	Name      string   `yaml:"name"`
	TimeSlots []string `yaml:"time_slots"`
	DaysAhead int      `yaml:"days_ahead"`
}

type CacheConfig struct {
	ScheduleTTLSeconds int `yaml:"schedule_ttl_seconds"`
}

type WorkerConfig struct {
	RetentionSweepHours int `yaml:"retention_sweep_hours"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Court.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c CourtConfig) validate() error {
	if len(c.TimeSlots) == 0 {
		return fmt.Errorf("court config: at least one time slot is required")
	}
	if c.DaysAhead < 1 {
		return fmt.Errorf("court config: days_ahead must be at least 1")
	}
	return nil
}
