package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/domain"
	"restaurant-pubsub/internal/microservices/kitchen/service"
)

type stubKitchen struct {
	orders []domain.Order
	err    error
	table  int
}

func (s *stubKitchen) HandleMessage(context.Context, broker.Message) {}
func (s *stubKitchen) ActiveOrders() []domain.Order                  { return s.orders }
func (s *stubKitchen) Connected() bool                               { return true }

func (s *stubKitchen) MarkReady(_ context.Context, id, table int) (domain.StatusMessage, error) {
	if s.err != nil {
		return domain.StatusMessage{}, s.err
	}
	s.table = table
	total := decimal.NewFromInt(10)
	return domain.StatusMessage{OrderID: id, Status: domain.StatusReady, Table: table, Total: &total, Timestamp: time.Now()}, nil
}

var _ service.KitchenServiceInterface = (*stubKitchen)(nil)

func serve(h *KitchenHandler, method, path, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMarkReadyRoute(t *testing.T) {
	stub := &stubKitchen{}
	w := serve(NewKitchenHandler(stub), http.MethodPost, "/api/v1/kitchen/orders/4/ready", `{"mesa":9}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"pronto"`) {
		t.Fatalf("ready = %d %s", w.Code, w.Body.String())
	}
	if stub.table != 9 {
		t.Fatalf("table = %d", stub.table)
	}

	w = serve(NewKitchenHandler(stub), http.MethodPost, "/api/v1/kitchen/orders/4/ready", "")
	if w.Code != http.StatusOK || stub.table != 0 {
		t.Fatalf("no body = %d table %d", w.Code, stub.table)
	}
}

func TestMarkReadyErrorMapping(t *testing.T) {
	cases := map[error]int{
		domain.ErrUnknownOrder:  http.StatusNotFound,
		broker.ErrNotConnected:  http.StatusServiceUnavailable,
		domain.ErrPublishFailed: http.StatusBadGateway,
		domain.ErrInProgress:    http.StatusConflict,
	}
	for err, code := range cases {
		w := serve(NewKitchenHandler(&stubKitchen{err: err}), http.MethodPost, "/api/v1/kitchen/orders/4/ready", "")
		if w.Code != code {
			t.Errorf("%v: code = %d, want %d", err, w.Code, code)
		}
	}
}

func TestListRoute(t *testing.T) {
	stub := &stubKitchen{orders: []domain.Order{{ID: 1, Table: 2}}}
	w := serve(NewKitchenHandler(stub), http.MethodGet, "/api/v1/kitchen/orders", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"pedido_id":1`) {
		t.Fatalf("list = %d %s", w.Code, w.Body.String())
	}
}
