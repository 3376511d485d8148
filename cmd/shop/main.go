package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ShopSmart/internal/app"
	"ShopSmart/internal/auth"
	"ShopSmart/internal/catalog"
	"ShopSmart/internal/checkout"
	"ShopSmart/internal/session"
	"ShopSmart/pkg/kit"
)

func main() {
	service := "shop"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8080")

	jwtSecret, err := resolveJWTSecret(getenv("APP_ENV", "dev"), os.Getenv("JWT_SECRET"))
	if err != nil {
		log.Fatal("jwt secret", zap.Error(err))
	}

	deps := app.Deps{Log: log, JWTSecret: jwtSecret}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := openDB(dbURL, getenv("MIGRATIONS_PATH", "./migrations"))
		if err != nil {
			log.Fatal("database init failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		deps.Users = auth.NewPostgresStore(db)
		deps.Catalog = catalog.NewPostgresStore(db)
		deps.Orders = checkout.NewPostgresStore(db)
	} else {
		deps.Users = auth.NewMemStore()
		deps.Catalog = catalog.NewMemStore()
		deps.Orders = checkout.NewMemStore()
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer func() { _ = client.Close() }()

		deps.Sessions = session.NewRedisStore(client, "session")
	} else {
		deps.Sessions = session.NewMemStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auth.SeedUsers(ctx, deps.Users, auth.DemoSeedUsers(), log); err != nil {
		cancel()
		log.Fatal("seed users failed", zap.Error(err))
	}
	cancel()

	reg := prometheus.NewRegistry()
	h := app.NewHandler(deps, app.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: os.Getenv("METRICS_ENABLED") == "1",
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

const minJWTSecretLen = 32

// resolveJWTSecret enforces the signing secret at startup. Outside dev
// the secret is required and must be at least 32 chars; dev falls back
// to a fixed value so the demo runs with no configuration.
func resolveJWTSecret(env, secret string) (string, error) {
	if env == "dev" {
		if secret == "" {
			return "dev-secret", nil
		}
		return secret, nil
	}
	if len(secret) < minJWTSecretLen {
		return "", fmt.Errorf("JWT_SECRET is required and must be at least %d chars", minJWTSecretLen)
	}
	return secret, nil
}

func openDB(dbURL, migrationsPath string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := runMigrations(db, migrationsPath); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sql.DB, path string) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
