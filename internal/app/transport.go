package app

import (
	"context"
	"fmt"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/config"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/connections/memory"
	"restaurant-pubsub/internal/connections/mqtt"
	"restaurant-pubsub/internal/connections/rabbitmq"
)

type dialer func(ctx context.Context, prefix string, lg *logger.Logger) (broker.Client, error)

func newDialer(cfg *config.Config, mem *memory.Broker) dialer {
	switch cfg.Broker.Transport {
	case config.TransportAMQP:
		return func(_ context.Context, prefix string, lg *logger.Logger) (broker.Client, error) {
			return rabbitmq.Dial(rabbitmq.Config{
				Host:     cfg.RabbitMQ.Host,
				Port:     cfg.RabbitMQ.Port,
				User:     cfg.RabbitMQ.User,
				Password: cfg.RabbitMQ.Password,
				VHost:    cfg.RabbitMQ.VHost,
				UseTLS:   cfg.RabbitMQ.UseTLS,
				Exchange: cfg.RabbitMQ.Exchange,
				Prefetch: cfg.RabbitMQ.Prefetch,
				ClientID: broker.ClientID(prefix),
			}, lg)
		}
	case config.TransportMemory:
		return func(_ context.Context, prefix string, _ *logger.Logger) (broker.Client, error) {
			return mem.Connect(broker.ClientID(prefix)), nil
		}
	case config.TransportMQTT:
		return func(ctx context.Context, prefix string, lg *logger.Logger) (broker.Client, error) {
			return mqtt.Dial(ctx, mqtt.Config{
				URL:               cfg.MQTT.URL,
				ClientPrefix:      prefix,
				Username:          cfg.MQTT.Username,
				Password:          cfg.MQTT.Password,
				ReconnectInterval: cfg.MQTT.ReconnectInterval,
				ConnectTimeout:    cfg.MQTT.ConnectTimeout,
			}, lg)
		}
	default:
		return func(context.Context, string, *logger.Logger) (broker.Client, error) {
			return nil, fmt.Errorf("unknown transport %q", cfg.Broker.Transport)
		}
	}
}
