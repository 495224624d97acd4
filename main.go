package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// env is the state every command starts from.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = e.log.Sync()
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "storefront",
		Short:        "Storefront API server and admin tools",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := root.PersistentFlags()
	flags.String("port", "", "listen address, e.g. :8080 (APP_PORT)")
	flags.String("db-driver", "", "sqlite or postgres (DB_DRIVER)")
	flags.String("dsn", "", "database DSN (DATABASE_DSN)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	for key, name := range map[string]string{
		"APP_PORT":     "port",
		"DB_DRIVER":    "db-driver",
		"DATABASE_DSN": "dsn",
		"LOG_LEVEL":    "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), v)
			},
		},
		newImportProductsCmd(v),
		newExportProductsCmd(v),
		newExportOrdersCmd(v),
		newResetPasswordCmd(v),
	)
	return root
}

// setup loads configuration, builds the logger and opens the migrated database.
func setup(v *viper.Viper) (*env, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DBVerbose)
	if err != nil {
		log.Error("database connection failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		log.Error("database migration failed", zap.Error(err))
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	e, err := setup(v)
	if err != nil {
		return err
	}
	defer e.close()
	log := e.log

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if e.cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: e.cfg.RabbitMQURL}, log)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		publisher = mqClient

		err = mqClient.ConsumeOrderEvents(func(event rabbitmq.OrderEvent) error {
			log.Info("order event received",
				zap.String("type", event.Type),
				zap.Uint("order_id", event.OrderID),
				zap.String("status", event.Status),
				zap.String("total", event.Total))
			return nil
		})
		if err != nil {
			log.Warn("failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		log.Info("RABBITMQ_URL not set, order events disabled")
	}

	a := app.New(e.cfg, e.db, log, publisher)

	if e.cfg.AdminUsername != "" {
		if _, err := a.Auth.EnsureAdmin(e.cfg.AdminUsername, e.cfg.AdminEmail, e.cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}
	if e.cfg.SeedProducts {
		n, err := a.SeedProducts()
		if err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		if n > 0 {
			log.Info("seeded demo products", zap.Int("count", n))
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go expireCarts(ctx, a, e.cfg.CartIdleTTL, log)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", e.cfg.AppPort))
		serveErr <- a.Fiber.Listen(e.cfg.AppPort)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during Fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return nil
}

// expireCarts drops idle cart sessions until ctx is done.
func expireCarts(ctx context.Context, a *app.App, ttl time.Duration, log *zap.Logger) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Sessions.Expire(ttl); n > 0 {
				log.Debug("expired idle cart sessions", zap.Int("count", n))
			}
		}
	}
}
