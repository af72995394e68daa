// Package app wires every component this module ships into a single
// dependency container, generalising the source project's
// internal/pkg/components.Container: same staged-init/Shutdown shape, but
// built fresh per-process instead of a package-level singleton, and with
// the storage backend and event publisher chosen by configuration instead
// of being hardcoded to Postgres+Kafka. The CLI only needs Engine and
// Logger; the HTTP server additionally needs Router.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"ledgerengine/internal/api/routes"
	"ledgerengine/internal/config"
	"ledgerengine/internal/engine"
	"ledgerengine/internal/events"
	"ledgerengine/internal/events/kafka"
	"ledgerengine/internal/logging"
	"ledgerengine/internal/storage"
	"ledgerengine/internal/storage/memstore"
	"ledgerengine/internal/storage/pgstore"
)

// Container holds every long-lived component a binary needs, wired
// according to Config. Every field is populated by New; there is no
// lazy/partial state to guard against.
type Container struct {
	Config    *config.Config
	Logger    *logging.Logger
	Store     storage.Store
	Publisher events.Publisher
	Engine    *engine.Engine
	Router    *gin.Engine

	pgStore *pgstore.Store // non-nil only when Store is backed by Postgres
}

// New builds a full Container for the server binary: config, logger,
// storage, event publisher and router. Storage is memstore unless
// cfg.Postgres.DSN is set; event publishing is a no-op unless
// cfg.Kafka.Brokers is set. A Kafka dial failure logs a warning and falls
// back to the no-op publisher rather than preventing the process from
// starting, matching the source project's initEventPublisher behaviour; a
// Postgres connection failure is returned as an error.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := newBase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.initPublisher()
	c.Engine = engine.New(c.Store, engine.WithPublisher(c.Publisher), engine.WithLogger(c.Logger))
	c.initRouter()
	return c, nil
}

// NewMinimal builds the reduced container the CLI needs: config, logger,
// storage and engine, no router and no event publisher unless Kafka is
// explicitly configured. This keeps the CSV-processing path free of the
// HTTP stack entirely, per the container's "CLI+optional-server" wiring.
func NewMinimal(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := newBase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.initPublisher()
	c.Engine = engine.New(c.Store, engine.WithPublisher(c.Publisher), engine.WithLogger(c.Logger))
	return c, nil
}

func newBase(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	c.Logger = logging.New(cfg.Logging, os.Stdout)
	if err := c.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	if c.Config.Postgres.DSN == "" {
		c.Logger.Info("using in-memory storage backend", nil)
		c.Store = memstore.New()
		return nil
	}

	store, err := pgstore.Open(ctx, c.Config.Postgres)
	if err != nil {
		return err
	}
	c.Logger.Info("using postgres storage backend", nil)
	c.pgStore = store
	c.Store = store
	return nil
}

func (c *Container) initPublisher() {
	if len(c.Config.Kafka.Brokers) == 0 {
		c.Logger.Info("kafka disabled, using no-op event publisher", nil)
		c.Publisher = events.NoOp{}
		return
	}

	kafkaCfg := &kafka.Config{
		Brokers:      c.Config.Kafka.Brokers,
		ClientID:     c.Config.Kafka.ClientID,
		Topic:        c.Config.Kafka.Topic,
		MaxRetries:   c.Config.Stream.MaxRetries,
		RetryBackoff: c.Config.Stream.InitialBackoff,
	}
	publisher, err := kafka.New(kafkaCfg)
	if err != nil {
		c.Logger.Warn("failed to initialize kafka, using no-op event publisher", map[string]interface{}{
			"error": err.Error(),
		})
		c.Publisher = events.NoOp{}
		return
	}
	c.Publisher = publisher
}

func (c *Container) initRouter() {
	gin.SetMode(gin.ReleaseMode)
	c.Router = gin.New()
	routes.Register(c.Router, c.Engine, c.Logger)
}

// Shutdown releases every component that owns a resource: the event
// publisher first, so in-flight publishes complete before storage is
// closed, then the storage backend itself.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.Publisher.Close(); err != nil {
		c.Logger.Warn("failed to close event publisher", map[string]interface{}{"error": err.Error()})
	}
	if c.pgStore != nil {
		c.pgStore.Close()
	}
	return nil
}
