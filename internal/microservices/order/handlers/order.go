package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/common/httpx"
	"restaurant-pubsub/internal/microservices/order/service"
)

type OrderHandler struct {
	service service.OrderServiceInterface
}

func NewOrderHandler(s service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: s}
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

type submitRequest struct {
	Table        int    `json:"mesa"`
	CustomerName string `json:"cliente"`
}

func (oh *OrderHandler) Menu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"itens": oh.service.Menu()})
}

func (oh *OrderHandler) Cart(c *gin.Context) {
	c.JSON(http.StatusOK, oh.service.Cart())
}

func (oh *OrderHandler) AddItem(c *gin.Context) {
	id, ok := httpx.IntParam(c, "id")
	if !ok {
		return
	}
	if !oh.service.AddItem(id) {
		httpx.WriteProblem(c, http.StatusNotFound, "not_found", "menu item not found")
		return
	}
	c.JSON(http.StatusOK, oh.service.Cart())
}

func (oh *OrderHandler) AdjustQuantity(c *gin.Context) {
	id, ok := httpx.IntParam(c, "id")
	if !ok {
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteProblem(c, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if !oh.service.AdjustQuantity(id, req.Delta) {
		httpx.WriteProblem(c, http.StatusNotFound, "not_found", "item is not in the cart")
		return
	}
	c.JSON(http.StatusOK, oh.service.Cart())
}

func (oh *OrderHandler) ClearCart(c *gin.Context) {
	oh.service.ClearCart()
	c.JSON(http.StatusOK, oh.service.Cart())
}

func (oh *OrderHandler) SubmitOrder(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.WriteProblem(c, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	order, err := oh.service.SubmitOrder(c.Request.Context(), req.Table, req.CustomerName)
	if err != nil {
		httpx.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
