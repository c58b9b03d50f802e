// Package app wires agents to their transports, stores and HTTP routes.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/common/httpx"
	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/config"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/connections/memory"
	"restaurant-pubsub/internal/microservices/cashier"
	cashiersvc "restaurant-pubsub/internal/microservices/cashier/service"
	"restaurant-pubsub/internal/microservices/kitchen"
	kitchensvc "restaurant-pubsub/internal/microservices/kitchen/service"
	"restaurant-pubsub/internal/microservices/management"
	managementsvc "restaurant-pubsub/internal/microservices/management/service"
	"restaurant-pubsub/internal/microservices/order"
	ordersvc "restaurant-pubsub/internal/microservices/order/service"
)

type Mode string

const (
	ModeOrderTaking Mode = "order-taking"
	ModeKitchen     Mode = "kitchen"
	ModeCashier     Mode = "cashier"
	ModeManagement  Mode = "management"
	ModeAll         Mode = "all"
)

var Modes = []Mode{ModeOrderTaking, ModeKitchen, ModeCashier, ModeManagement, ModeAll}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return "", fmt.Errorf("unknown mode %q: want one of %s", s, strings.Join(names, " | "))
}

func (m Mode) runs(agent Mode) bool { return m == ModeAll || m == agent }

// Agents is a running set of agents sharing one HTTP engine. Each agent owns
// its own broker connection.
type Agents struct {
	Order      *ordersvc.OrderService
	Kitchen    *kitchensvc.KitchenService
	Cashier    *cashiersvc.CashierService
	Management *managementsvc.ManagementService
	Engine     *gin.Engine

	clients   []broker.Client
	res       *resources
	transport string
}

// Build dials and starts the agents selected by mode. With the memory
// transport every agent connects to one in-process broker.
func Build(ctx context.Context, cfg *config.Config, mode Mode) (a *Agents, err error) {
	lg := logger.New("bootstrap")
	a = &Agents{res: newResources(cfg), transport: cfg.Broker.Transport}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	dial := newDialer(cfg, memory.New())
	a.Engine = httpx.NewEngine(lg, a.health)

	if mode.runs(ModeOrderTaking) {
		client, err := a.connect(ctx, dial, order.ClientPrefix, ordersvc.Agent)
		if err != nil {
			return a, err
		}
		counter, err := a.res.counterStore(ctx)
		if err != nil {
			return a, err
		}
		a.Order, err = order.Start(ctx, client, counter, a.Engine, ordersvc.Options{
			PublishTimeout: cfg.Broker.PublishTimeout,
			Logger:         logger.New(ordersvc.Agent),
		})
		if err != nil {
			return a, fmt.Errorf("start order-taking: %w", err)
		}
	}

	if mode.runs(ModeKitchen) {
		client, err := a.connect(ctx, dial, kitchen.ClientPrefix, kitchensvc.Agent)
		if err != nil {
			return a, err
		}
		a.Kitchen, err = kitchen.Start(ctx, client, a.Engine, kitchensvc.Options{
			PublishTimeout: cfg.Broker.PublishTimeout,
			Logger:         logger.New(kitchensvc.Agent),
		})
		if err != nil {
			return a, fmt.Errorf("start kitchen: %w", err)
		}
	}

	if mode.runs(ModeCashier) {
		client, err := a.connect(ctx, dial, cashier.ClientPrefix, cashiersvc.Agent)
		if err != nil {
			return a, err
		}
		a.Cashier, err = cashier.Start(ctx, client, a.Engine, cashiersvc.Options{
			PublishTimeout: cfg.Broker.PublishTimeout,
			Logger:         logger.New(cashiersvc.Agent),
		})
		if err != nil {
			return a, fmt.Errorf("start cashier: %w", err)
		}
	}

	if mode.runs(ModeManagement) {
		client, err := a.connect(ctx, dial, management.ClientPrefix, managementsvc.Agent)
		if err != nil {
			return a, err
		}
		mirror, err := a.res.auditMirror(ctx)
		if err != nil {
			return a, err
		}
		a.Management, err = management.Start(ctx, client, a.Engine, managementsvc.Options{
			Mirror: mirror,
			Logger: logger.New(managementsvc.Agent),
		})
		if err != nil {
			return a, fmt.Errorf("start management: %w", err)
		}
	}

	lg.Info("agents_started", map[string]any{"mode": string(mode), "transport": cfg.Broker.Transport})
	return a, nil
}

func (a *Agents) connect(ctx context.Context, dial dialer, prefix, agent string) (broker.Client, error) {
	client, err := dial(ctx, prefix, logger.New(agent))
	if err != nil {
		return nil, fmt.Errorf("%s broker: %w", agent, err)
	}
	a.clients = append(a.clients, client)
	logger.New(agent).Info("broker_client_ready", map[string]any{
		"client_id": client.ID(),
		"transport": a.transport,
		"connected": client.IsConnected(),
	})
	return client, nil
}

// health reports every broker connection; the UI uses it as its connection
// indicator.
func (a *Agents) health() map[string]any {
	conns := make(map[string]any, 4)
	if a.Order != nil {
		conns[ordersvc.Agent] = a.Order.Connected()
	}
	if a.Kitchen != nil {
		conns[kitchensvc.Agent] = a.Kitchen.Connected()
	}
	if a.Cashier != nil {
		conns[cashiersvc.Agent] = a.Cashier.Connected()
	}
	if a.Management != nil {
		conns[managementsvc.Agent] = a.Management.Connected()
	}
	return map[string]any{"conectado": conns}
}

func (a *Agents) Close() {
	for _, c := range a.clients {
		c.Close()
	}
	a.clients = nil
	a.res.close()
}

// Run serves the agents' HTTP surface until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, mode Mode) error {
	a, err := Build(ctx, cfg, mode)
	if err != nil {
		return err
	}
	defer a.Close()
	return httpx.New(cfg.App.HTTPAddr, a.Engine).Run(ctx)
}
