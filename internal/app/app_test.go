package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restaurant-pubsub/internal/config"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Broker.Transport = config.TransportMemory
	cfg.Store.Counter = config.StoreMemory
	return &cfg
}

func call(t *testing.T, h http.Handler, method, path, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code >= 300 {
		t.Fatalf("%s %s = %d %s", method, path, w.Code, w.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return out
}

func TestOrderLifecycleAcrossAgents(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), ModeAll)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()
	h := a.Engine

	call(t, h, http.MethodPost, "/api/v1/cart/items/101", "")
	call(t, h, http.MethodPost, "/api/v1/cart/items/101", "")
	call(t, h, http.MethodPost, "/api/v1/cart/items/103", "")
	order := call(t, h, http.MethodPost, "/api/v1/orders", `{"mesa":5,"cliente":""}`)
	if order["total"] != float64(76) || order["cliente"] != "Mesa 5" {
		t.Fatalf("order = %v", order)
	}
	id := int(order["pedido_id"].(float64))

	kitchenView := a.Kitchen.ActiveOrders()
	if len(kitchenView) != 1 || kitchenView[0].ID != id {
		t.Fatalf("kitchen view = %+v", kitchenView)
	}

	call(t, h, http.MethodPost, "/api/v1/kitchen/orders/1/ready", `{"mesa":5}`)
	if n := len(a.Kitchen.ActiveOrders()); n != 0 {
		t.Fatalf("kitchen still tracks %d orders", n)
	}
	pending := a.Cashier.PendingPayments()
	if len(pending) != 1 || pending[0].AwaitingTotal || pending[0].Total.StringFixed(2) != "76.00" {
		t.Fatalf("cashier view = %+v", pending)
	}

	call(t, h, http.MethodPost, "/api/v1/cashier/orders/1/finalize", "")
	if n := len(a.Cashier.PendingPayments()); n != 0 {
		t.Fatalf("cashier still tracks %d orders", n)
	}

	rows := a.Management.Entries()
	if len(rows) != 3 {
		t.Fatalf("management rows = %d", len(rows))
	}
	wantTopics := []string{"senai/iot/status/finalizado", "senai/iot/status/pronto", "senai/iot/pedidos"}
	for i, topic := range wantTopics {
		if rows[i].Topic != topic || rows[i].OrderID == nil || *rows[i].OrderID != id {
			t.Errorf("row %d = %+v, want topic %s", i, rows[i], topic)
		}
	}
	if v, ok := a.Management.OrderStatus(id); !ok || v.State != "FINALIZED" {
		t.Fatalf("lifecycle = %+v", v)
	}

	health := call(t, h, http.MethodGet, "/healthz", "")
	conns, _ := health["conectado"].(map[string]any)
	if len(conns) != 4 || conns["kitchen"] != true {
		t.Fatalf("health = %v", health)
	}
}

func TestSingleAgentMode(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), ModeKitchen)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()
	if a.Order != nil || a.Cashier != nil || a.Management != nil || a.Kitchen == nil {
		t.Fatalf("unexpected agents: %+v", a)
	}

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("menu route mounted in kitchen mode: %d", w.Code)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("cashier"); err != nil || m != ModeCashier {
		t.Fatalf("m=%s err=%v", m, err)
	}
	if _, err := ParseMode("waiter"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestClientIDsCarryAgentPrefixes(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), ModeAll)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	want := []string{"Atendente_Web_", "Cozinha_Web_", "Caixa_Web_", "Gerencia_Web_"}
	if len(a.clients) != len(want) {
		t.Fatalf("clients = %d", len(a.clients))
	}
	for i, c := range a.clients {
		id := c.ID()
		if !strings.HasPrefix(id, want[i]) || len(id) != len(want[i])+8 {
			t.Errorf("client %d id = %q, want prefix %q plus 8 chars", i, id, want[i])
		}
	}
}
