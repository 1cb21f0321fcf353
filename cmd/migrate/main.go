// Command migrate applies the database schema.
package main

import (
	"fmt"
	"log"

	"kforum/internal/config"
	"kforum/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Connect runs AutoMigrate itself outside production; force it here so
	// the command also works against production databases.
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Println("schema applied")
	return nil
}
