package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/common/httpx"
	"restaurant-pubsub/internal/microservices/kitchen/service"
)

type KitchenHandler struct {
	service service.KitchenServiceInterface
}

func NewKitchenHandler(s service.KitchenServiceInterface) *KitchenHandler {
	return &KitchenHandler{service: s}
}

func (h *KitchenHandler) Register(r gin.IRouter) {
	g := r.Group("/api/v1/kitchen")
	g.GET("/orders", h.List)
	g.POST("/orders/:id/ready", h.MarkReady)
}

func (h *KitchenHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pedidos":   h.service.ActiveOrders(),
		"conectado": h.service.Connected(),
	})
}

// MarkReady accepts an optional {"mesa": n} body; without it the order's own
// table is used.
func (h *KitchenHandler) MarkReady(c *gin.Context) {
	id, ok := httpx.IntParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Table int `json:"mesa"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteProblem(c, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
	}
	status, err := h.service.MarkReady(c.Request.Context(), id, req.Table)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
