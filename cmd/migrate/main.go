// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"creatorhub/internal/config"
	"creatorhub/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status|drop> [-force]")
}

func run() error {
	force := flag.Bool("force", false, "Required for drop")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Println("schema migrated")
	case "status":
		return status(ctx, db)
	case "drop":
		if !*force {
			return fmt.Errorf("drop deletes every table; rerun with -force")
		}
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to drop tables in %s", cfg.Env)
		}
		models := database.PersistentModels()
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.WithContext(ctx).Migrator().DropTable(models[i]); err != nil {
				return fmt.Errorf("drop %T: %w", models[i], err)
			}
		}
		log.Printf("dropped %d tables", len(models))
	default:
		return usage()
	}
	return nil
}

func status(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	missing := 0
	for _, model := range database.PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse %T: %w", model, err)
		}
		table := stmt.Schema.Table
		if !m.HasTable(model) {
			missing++
			log.Printf("missing: %s", table)
			continue
		}
		cols, err := m.ColumnTypes(model)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		log.Printf("ok: %s (%d columns)", table, len(cols))
	}
	if missing > 0 {
		return fmt.Errorf("%d tables missing; run `migrate up`", missing)
	}
	return nil
}
