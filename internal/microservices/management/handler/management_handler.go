package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/common/httpx"
	"restaurant-pubsub/internal/microservices/management/service"
)

type ManagementHandler struct {
	service service.ManagementServiceInterface
}

func NewManagementHandler(svc service.ManagementServiceInterface) *ManagementHandler {
	return &ManagementHandler{service: svc}
}

func (h *ManagementHandler) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	api.GET("/audit", h.GetAudit)
	api.GET("/orders/:id/status", h.GetStatus)
	api.GET("/orders/:id/timeline", h.GetTimeline)
}

func (h *ManagementHandler) GetAudit(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transacoes": h.service.Entries(),
		"conectado":  h.service.Connected(),
	})
}

func (h *ManagementHandler) GetStatus(c *gin.Context) {
	id, ok := httpx.IntParam(c, "id")
	if !ok {
		return
	}
	v, found := h.service.OrderStatus(id)
	if !found {
		httpx.WriteProblem(c, http.StatusNotFound, "not_found", "order not seen")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ManagementHandler) GetTimeline(c *gin.Context) {
	id, ok := httpx.IntParam(c, "id")
	if !ok {
		return
	}
	events, err := h.service.Timeline(c.Request.Context(), id)
	if err != nil {
		httpx.WriteProblem(c, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"pedido_id": id, "eventos": events})
}
