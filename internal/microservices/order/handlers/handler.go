package handlers

import (
	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/microservices/order/service"
)

type Handler struct {
	OrderHandler *OrderHandler
}

func New(s service.OrderServiceInterface) *Handler {
	return &Handler{
		OrderHandler: NewOrderHandler(s),
	}
}

// Register mounts the order-taking routes under /api/v1.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	api.GET("/menu", h.OrderHandler.Menu)
	api.GET("/cart", h.OrderHandler.Cart)
	api.POST("/cart/items/:id", h.OrderHandler.AddItem)
	api.PATCH("/cart/items/:id", h.OrderHandler.AdjustQuantity)
	api.DELETE("/cart", h.OrderHandler.ClearCart)
	api.POST("/orders", h.OrderHandler.SubmitOrder)
}
