package order

import (
	"context"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/microservices/order/handlers"
	"restaurant-pubsub/internal/microservices/order/repository"
	"restaurant-pubsub/internal/microservices/order/service"
)

// ClientPrefix names order-taking connections on the broker.
const ClientPrefix = "Atendente_Web"

// Start builds the order-taking agent and mounts its routes. It never
// subscribes: the agent only produces orders.
func Start(ctx context.Context, client broker.Client, counter repository.CounterStore, r gin.IRouter, opts service.Options) (*service.OrderService, error) {
	svc, err := service.NewOrderService(ctx, client, counter, opts)
	if err != nil {
		return nil, err
	}
	handlers.New(svc).Register(r)
	return svc, nil
}
