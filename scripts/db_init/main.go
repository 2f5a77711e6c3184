package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"

	dbfs "github.com/garnizeh/jobly/db"
	"github.com/garnizeh/jobly/internal/config"
	"github.com/garnizeh/jobly/internal/db"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	seed := flag.Bool("seed", false, "Load demo companies and jobs after migrating")
	flag.Parse()

	if err := run(*configPath, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database initialized successfully.")
}

func run(configPath string, seed bool) error {
	ctx := context.Background()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	database, err := db.New(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		return fmt.Errorf("DB init error: %w", err)
	}
	defer database.Close()

	var seedFS fs.FS
	if seed {
		seedFS = dbfs.SeedFiles
	}
	if err := db.Migrate(ctx, database, dbfs.Migrations, seedFS); err != nil {
		return fmt.Errorf("migration runner error: %w", err)
	}
	return nil
}
