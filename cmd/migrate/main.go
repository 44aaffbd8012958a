package main

import (
	"fmt"
	"os"

	"github.com/pratik-mahalle/parlour/internal/config"
	"github.com/pratik-mahalle/parlour/internal/repository/postgres"
	"github.com/pratik-mahalle/parlour/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.Driver == "memory" {
		fmt.Println("DB_DRIVER=memory needs no migrations")
		return
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	applied, err := postgres.RunMigrations(db, cfg.Database.Driver, migrations.GetFS())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed after %d applied: %v\n", applied, err)
		os.Exit(1)
	}

	if applied == 0 {
		fmt.Println("Database is up to date")
		return
	}
	fmt.Printf("Applied %d migration(s)\n", applied)
}
