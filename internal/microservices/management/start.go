package management

import (
	"context"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/microservices/management/handler"
	"restaurant-pubsub/internal/microservices/management/service"
)

const ClientPrefix = "Gerencia_Web"

// Start subscribes the management agent to the whole namespace and mounts
// the audit routes.
func Start(ctx context.Context, client broker.Client, r gin.IRouter, opts service.Options) (*service.ManagementService, error) {
	svc := service.NewManagementService(client, opts)
	if err := svc.Run(ctx); err != nil {
		return nil, err
	}
	handler.NewManagementHandler(svc).Register(r)
	return svc, nil
}
