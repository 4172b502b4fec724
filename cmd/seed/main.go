// Command main runs the database seeder for CreatorHub.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"creatorhub/internal/config"
	"creatorhub/internal/database"
	"creatorhub/internal/middleware"
	"creatorhub/internal/seed"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario file (overrides -preset)")
	preset := flag.String("preset", "default", "Built-in scenario: default, minimal or populated")
	users := flag.Int("users", -1, "Override the number of generated users")
	randomSeed := flag.Int64("random-seed", 0, "Deterministic random seed (0 picks one)")
	noClean := flag.Bool("no-clean", false, "Keep existing rows instead of clearing every table first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env)

	var sc seed.Scenario
	if *scenarioPath != "" {
		sc, err = seed.LoadScenario(*scenarioPath)
	} else {
		sc, err = seed.Preset(*preset)
	}
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}
	if *users >= 0 {
		sc.Users = *users
	}
	if *randomSeed != 0 {
		sc.RandomSeed = *randomSeed
	}
	if *noClean {
		sc.Clean = false
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	res, err := seed.Run(ctx, db, sc)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	log.Printf("All seeded users share the password: %s", sc.Password)
}
