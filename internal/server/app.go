// Package server wires the Safe Locker backend together: configuration,
// Postgres, the object store, the event bus, mail, and the gRPC and admin
// servers, and runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/server/blob"
	"github.com/dmitrijs2005/safelocker/internal/server/config"
	"github.com/dmitrijs2005/safelocker/internal/server/events"
	"github.com/dmitrijs2005/safelocker/internal/server/mail"
	"github.com/dmitrijs2005/safelocker/internal/server/metrics"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safelocker/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/safelocker/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	bus     events.Bus
	metrics *metrics.Metrics
	grpc    *gs.GRPCServer
	admin   *metrics.AdminServer
}

// NewApp connects to Postgres, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, os.Stdout, c.Debug)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store: %w", err)
	}

	bus, err := newBus(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("event bus: %w", err)
	}

	mt := metrics.New()
	identity := services.NewIdentityService(db, rm, newMailer(c, logger), c, logger)
	catalog := services.NewCatalogService(db, rm, bus, mt, logger)
	objects := services.NewObjectService(store, mt, logger)

	app := &App{
		config:  c,
		logger:  logger,
		db:      db,
		bus:     bus,
		metrics: mt,
		grpc:    gs.NewGRPCServer(c, logger, identity, catalog, objects, mt),
	}
	if c.AdminAddr != "" {
		app.admin = metrics.NewAdminServer(c.AdminAddr, mt, db.PingContext, logger)
	}
	return app, nil
}

func newStore(ctx context.Context, c *config.Config) (blob.Store, error) {
	o := blob.Options{
		Endpoint:  c.S3BaseEndpoint,
		Region:    c.S3Region,
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Bucket:    c.S3Bucket,
		TTL:       c.PresignTTL,
	}
	if c.ObjectBackend == config.ObjectBackendMinio {
		return blob.NewMinioStore(o)
	}
	return blob.NewS3Store(ctx, o)
}

func newBus(ctx context.Context, c *config.Config, logger logging.Logger) (events.Bus, error) {
	if c.EventBus != config.EventBusRedis {
		return events.NewHub(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
	}
	return events.NewRedisBus(client, "safelocker", logger), nil
}

func newMailer(c *config.Config, logger logging.Logger) mail.Mailer {
	if c.SMTPHost == "" {
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or until one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.grpc.Run(ctx)
	})
	if app.admin != nil {
		g.Go(func() error {
			return app.admin.Run(ctx)
		})
	}

	err := g.Wait()
	app.close(context.Background())
	return err
}

func (app *App) close(ctx context.Context) {
	if err := app.bus.Close(); err != nil {
		app.logger.Warn(ctx, "Closing event bus failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "Closing database failed", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
