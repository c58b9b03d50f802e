package cashier

import (
	"context"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/microservices/cashier/handlers"
	"restaurant-pubsub/internal/microservices/cashier/service"
)

const ClientPrefix = "Caixa_Web"

func Start(ctx context.Context, client broker.Client, r gin.IRouter, opts service.Options) (*service.CashierService, error) {
	svc := service.NewCashierService(client, opts)
	if err := svc.Run(ctx); err != nil {
		return nil, err
	}
	handlers.NewCashierHandler(svc).Register(r)
	return svc, nil
}
