package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/connections/memory"
	"restaurant-pubsub/internal/domain"
	"restaurant-pubsub/internal/microservices/management/service"
)

func TestManagementRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b := memory.New()
	svc := service.NewManagementService(b.Connect("gerencia"), service.Options{Logger: logger.Discard(service.Agent)})
	if err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	NewManagementHandler(svc).Register(r)

	pub := b.Connect("atendente")
	if err := pub.Publish(context.Background(), domain.TopicOrders, 1, []byte(`{"pedido_id":12,"mesa":4,"total":20}`)); err != nil {
		t.Fatal(err)
	}

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	if w := get("/api/v1/audit"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Pedido Criado (Total: R$ 20.00)") {
		t.Fatalf("audit = %d %s", w.Code, w.Body.String())
	}
	if w := get("/api/v1/orders/12/status"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"CREATED"`) {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if w := get("/api/v1/orders/13/status"); w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"type":"not_found"`) {
		t.Fatalf("unknown = %d %s", w.Code, w.Body.String())
	}
	if w := get("/api/v1/orders/x/status"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", w.Code)
	}
	if w := get("/api/v1/orders/12/timeline"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"tipo":"order_created"`) {
		t.Fatalf("timeline = %d %s", w.Code, w.Body.String())
	}
}
