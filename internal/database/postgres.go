package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"wisata-bali-recommender/internal/config"
)

// Open connects to the configured driver and runs migrations.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "sqlite3":
		return NewSQLite(cfg.SQLitePath)
	case "postgres", "":
		return NewPostgres(cfg)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// NewPostgres connects through lib/pq and migrates the schema.
func NewPostgres(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s@%s:%d: %w", cfg.DBName, cfg.Host, cfg.Port, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	slog.Info("connected to PostgreSQL", "host", cfg.Host, "db", cfg.DBName)

	if err := runMigrations(db, postgresDialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
