package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Broker.Transport != TransportMQTT || cfg.MQTT.ReconnectInterval != time.Second {
		t.Fatalf("unexpected defaults %+v", cfg.Broker)
	}
	if cfg.Store.Counter != StoreFile {
		t.Fatalf("counter store = %q", cfg.Store.Counter)
	}
}

func TestLoadFileAndEnvOverlay(t *testing.T) {
	p := writeFile(t, `
broker:
  transport: amqp
  publish_timeout: 2s
rabbitmq:
  host: rabbit
  prefetch: 3
store:
  counter: redis
`)
	t.Setenv("RESTAURANT_RABBITMQ__USER", "kitchen")
	t.Setenv("RESTAURANT_REDIS__ADDR", "cache:6379")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Broker.Transport != TransportAMQP || cfg.Broker.PublishTimeout != 2*time.Second {
		t.Fatalf("broker = %+v", cfg.Broker)
	}
	if cfg.RabbitMQ.Host != "rabbit" || cfg.RabbitMQ.Prefetch != 3 || cfg.RabbitMQ.User != "kitchen" {
		t.Fatalf("rabbitmq = %+v", cfg.RabbitMQ)
	}
	if cfg.RabbitMQ.Exchange != "amq.topic" {
		t.Fatalf("default exchange lost: %q", cfg.RabbitMQ.Exchange)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
}

func TestValidateRejectsUnknownChoices(t *testing.T) {
	cfg := Default()
	cfg.Broker.Transport = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown transport accepted")
	}

	cfg = Default()
	cfg.Store.Counter = "localstorage"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown counter store accepted")
	}

	cfg = Default()
	cfg.Store.Audit = StorePostgres
	cfg.Database.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("postgres audit without database accepted")
	}
}

func TestOverridesApplyBeforeValidation(t *testing.T) {
	p := writeFile(t, `
broker:
  transport: carrier-pigeon
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad transport from file accepted")
	}

	cfg.Apply(Overrides{Transport: TransportMemory, HTTPAddr: ":9090"})
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate after override: %v", err)
	}
	if cfg.Broker.Transport != TransportMemory || cfg.App.HTTPAddr != ":9090" || cfg.Store.Counter != StoreFile {
		t.Fatalf("overrides = %+v %+v %+v", cfg.Broker, cfg.App, cfg.Store)
	}
}
