package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/common/httpx"
	"restaurant-pubsub/internal/microservices/cashier/service"
)

type CashierHandler struct {
	service service.CashierServiceInterface
}

func NewCashierHandler(s service.CashierServiceInterface) *CashierHandler {
	return &CashierHandler{service: s}
}

func (h *CashierHandler) Register(r gin.IRouter) {
	g := r.Group("/api/v1/cashier")
	g.GET("/orders", h.List)
	g.POST("/orders/:id/finalize", h.Finalize)
}

func (h *CashierHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pedidos":   h.service.PendingPayments(),
		"conectado": h.service.Connected(),
	})
}

func (h *CashierHandler) Finalize(c *gin.Context) {
	id, ok := httpx.IntParam(c, "id")
	if !ok {
		return
	}
	status, err := h.service.MarkFinalized(c.Request.Context(), id)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
