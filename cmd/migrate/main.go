package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Lelo88/inventory-pricing-api/internal/config"
	"github.com/Lelo88/inventory-pricing-api/internal/logger"
	"github.com/Lelo88/inventory-pricing-api/internal/migrations"
)

func main() {
	command := flag.String("cmd", "up", "migration command: up|down|status|version|redo|validate")
	flag.Parse()

	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx = logg.WithField(ctx, "cmd", *command)

	// validate no necesita base.
	if *command == "validate" {
		if err := migrations.Validate(migrations.FS()); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "config not available", err)
		os.Exit(1)
	}

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logg.Error(ctx, "database not available", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	if err := sqlDB.PingContext(ctx); err != nil {
		logg.Error(ctx, "database not reachable", err)
		os.Exit(1)
	}

	if err := migrations.Run(ctx, sqlDB, *command, flag.Args()...); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}
