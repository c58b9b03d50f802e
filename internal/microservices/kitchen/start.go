package kitchen

import (
	"context"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/microservices/kitchen/handlers"
	"restaurant-pubsub/internal/microservices/kitchen/service"
)

const ClientPrefix = "Cozinha_Web"

func Start(ctx context.Context, client broker.Client, r gin.IRouter, opts service.Options) (*service.KitchenService, error) {
	svc := service.NewKitchenService(client, opts)
	if err := svc.Run(ctx); err != nil {
		return nil, err
	}
	handlers.NewKitchenHandler(svc).Register(r)
	return svc, nil
}
