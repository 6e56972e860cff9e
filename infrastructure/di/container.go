package di

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"flowbuilder/application/commands/bus"
	"flowbuilder/application/editor"
	"flowbuilder/application/ports"
	querybus "flowbuilder/application/queries/bus"
	"flowbuilder/infrastructure/config"
	"flowbuilder/interfaces/websocket"
	"flowbuilder/pkg/auth"
	"flowbuilder/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Store         ports.SnapshotStore
	Journal       ports.EventJournal
	Session       *editor.Session
	Subscriptions Subscriptions
	Hub           *websocket.Hub
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Metrics       *observability.Metrics
	RateLimiter   *auth.TokenBucketLimiter
	Handler       http.Handler
}

// Start restores the saved flow and runs background work until ctx ends:
// the websocket hub and, when limiting is on, the idle bucket sweep.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Session.Restore(ctx); err != nil {
		return err
	}

	go c.Hub.Run(ctx)

	if c.RateLimiter != nil {
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := c.RateLimiter.Sweep(); n > 0 {
						c.Logger.Debug("Swept idle rate limit buckets", zap.Int("count", n))
					}
				}
			}
		}()
	}

	c.Logger.Info("Flow builder ready",
		zap.String("store", c.Config.SnapshotStore),
		zap.String("key", c.Config.SnapshotKey),
		zap.Int("event_handlers", c.Subscriptions.Handlers),
	)
	return nil
}
