package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes environment overrides, e.g. RESTAURANT_MQTT__URL.
const EnvPrefix = "RESTAURANT_"

// Config holds every application setting.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Log      LogConfig      `koanf:"log"`
	Broker   BrokerConfig   `koanf:"broker"`
	MQTT     MQTTConfig     `koanf:"mqtt"`
	RabbitMQ RabbitMQConfig `koanf:"rabbitmq"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Store    StoreConfig    `koanf:"store"`
}

type AppConfig struct {
	HTTPAddr string `koanf:"http_addr"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

type BrokerConfig struct {
	Transport      string        `koanf:"transport"` // mqtt | amqp | memory
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

type MQTTConfig struct {
	URL               string        `koanf:"url"`
	Username          string        `koanf:"username"`
	Password          string        `koanf:"password"`
	ReconnectInterval time.Duration `koanf:"reconnect_interval"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout"`
}

type RabbitMQConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	VHost    string `koanf:"vhost"`
	UseTLS   bool   `koanf:"use_tls"`
	Exchange string `koanf:"exchange"`
	Prefetch int    `koanf:"prefetch"`
}

type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int    `koanf:"max_conns"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type StoreConfig struct {
	Counter     string `koanf:"counter"` // file | postgres | redis | memory
	CounterFile string `koanf:"counter_file"`
	Audit       string `koanf:"audit"` // none | postgres
}

const (
	TransportMQTT   = "mqtt"
	TransportAMQP   = "amqp"
	TransportMemory = "memory"

	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
	StoreNone     = "none"
)

func Default() Config {
	return Config{
		App: AppConfig{HTTPAddr: ":8080"},
		Log: LogConfig{Level: "info"},
		Broker: BrokerConfig{
			Transport:      TransportMQTT,
			PublishTimeout: 5 * time.Second,
		},
		MQTT: MQTTConfig{
			URL:               "wss://broker.hivemq.com:8884/mqtt",
			ReconnectInterval: time.Second,
			ConnectTimeout:    10 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			VHost:    "/",
			Exchange: "amq.topic",
			Prefetch: 10,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "restaurant",
			Database: "restaurant",
			SSLMode:  "disable",
			MaxConns: 4,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Store: StoreConfig{
			Counter:     StoreFile,
			CounterFile: "data/counter.json",
			Audit:       StoreNone,
		},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file and
// RESTAURANT_* environment variables, in that order. Callers apply their own
// overrides and then call Validate.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// envKey maps RESTAURANT_MQTT__RECONNECT_INTERVAL to mqtt.reconnect_interval.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

func (c Config) Validate() error {
	switch c.Broker.Transport {
	case TransportMQTT:
		if c.MQTT.URL == "" {
			return errors.New("invalid config: mqtt.url required")
		}
	case TransportAMQP:
		if c.RabbitMQ.Host == "" || c.RabbitMQ.Exchange == "" {
			return errors.New("invalid config: rabbitmq.host and rabbitmq.exchange required")
		}
	case TransportMemory:
	default:
		return fmt.Errorf("invalid config: unknown broker.transport %q", c.Broker.Transport)
	}
	if c.Broker.PublishTimeout <= 0 {
		return errors.New("invalid config: broker.publish_timeout must be positive")
	}

	switch c.Store.Counter {
	case StoreFile:
		if c.Store.CounterFile == "" {
			return errors.New("invalid config: store.counter_file required")
		}
	case StorePostgres, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("invalid config: unknown store.counter %q", c.Store.Counter)
	}
	switch c.Store.Audit {
	case StoreNone, StorePostgres:
	default:
		return fmt.Errorf("invalid config: unknown store.audit %q", c.Store.Audit)
	}
	if c.Store.Counter == StorePostgres || c.Store.Audit == StorePostgres {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Database == "" {
			return errors.New("invalid config: database config incomplete")
		}
	}
	return nil
}

// Overrides are command-line values; empty fields leave the config alone.
type Overrides struct {
	HTTPAddr  string
	Transport string
	Counter   string
}

func (c *Config) Apply(o Overrides) {
	if o.HTTPAddr != "" {
		c.App.HTTPAddr = o.HTTPAddr
	}
	if o.Transport != "" {
		c.Broker.Transport = o.Transport
	}
	if o.Counter != "" {
		c.Store.Counter = o.Counter
	}
}
