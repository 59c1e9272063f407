// Command api serves the product catalogue over HTTP.
//
//	@title						Product API
//	@version					1.0
//	@description				JWT-secured product catalogue with role-based access control.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noosyn/product-api/internal/api"
	"github.com/noosyn/product-api/internal/api/handler"
	"github.com/noosyn/product-api/internal/core/ports"
	"github.com/noosyn/product-api/internal/core/service"
	"github.com/noosyn/product-api/internal/infrastructure/config"
	"github.com/noosyn/product-api/internal/infrastructure/db/mongo"
	"github.com/noosyn/product-api/internal/infrastructure/db/postgres"
	"github.com/noosyn/product-api/internal/infrastructure/db/redis"
	"github.com/noosyn/product-api/internal/infrastructure/security"
	"github.com/noosyn/product-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		l := logger.New(logger.Options{Service: "product-api"})
		l.Fatal().Err(err).Msg("startup failed")
	}
}

// storage is the selected persistence backend.
type storage struct {
	users    ports.UserRepository
	products ports.ProductRepository
	ping     handler.Pinger
	close    func(context.Context) error
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "product-api",
	})

	tokens, err := security.NewJWTCodec(cfg.JWT.Secret, cfg.JWT.TTL())
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}()
	log.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	health := map[string]handler.Pinger{cfg.StorageDriver: store.ping}

	var cache ports.PrincipalCache
	if cfg.Redis.PrincipalCacheTTL > 0 {
		rdb, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		pc := redis.NewPrincipalCache(rdb, cfg.Redis.PrincipalCacheTTL)
		cache = pc
		health["redis"] = pc
		log.Info().Dur("ttl", cfg.Redis.PrincipalCacheTTL).Msg("principal cache enabled")
	} else {
		log.Info().Msg("principal cache disabled")
	}

	authService := service.NewAuthService(
		store.users,
		security.NewBcryptHasher(cfg.JWT.BcryptCost),
		tokens,
		cache,
		log.With().Str("component", "auth").Logger(),
	)
	productService := service.NewProductService(store.products, log.With().Str("component", "products").Logger())

	if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	e := api.NewRouter(api.Dependencies{
		Auth:              authService,
		Products:          productService,
		Tokens:            tokens,
		Health:            health,
		Logger:            log,
		LegacyErrorStatus: cfg.LegacyErrorStatus,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &storage{
			users:    mongo.NewUserRepository(db),
			products: mongo.NewProductRepository(db),
			ping:     handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
			close:    client.Disconnect,
		}, nil

	default:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			users:    postgres.NewUserRepository(db),
			products: postgres.NewProductRepository(db),
			ping:     handler.PingFunc(db.PingContext),
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
}

// Compile-time checks that the adapters satisfy the ports.
var (
	_ ports.UserRepository    = (*postgres.UserRepository)(nil)
	_ ports.ProductRepository = (*postgres.ProductRepository)(nil)
	_ ports.UserRepository    = (*mongo.UserRepository)(nil)
	_ ports.ProductRepository = (*mongo.ProductRepository)(nil)
	_ ports.PrincipalCache    = (*redis.PrincipalCache)(nil)
	_ ports.AuthService       = (*service.AuthService)(nil)
	_ ports.ProductService    = (*service.ProductService)(nil)
	_ ports.TokenCodec        = (*security.JWTCodec)(nil)
	_ ports.PasswordHasher    = (*security.BcryptHasher)(nil)
)
