package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"portfolio/internal/config"
	"portfolio/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	username := flag.String("username", cfg.Auth.AdminUsername, "admin username")
	email := flag.String("email", cfg.Auth.AdminEmail, "admin account email")
	flag.Parse()

	// The password is never taken from a flag so it stays out of shell history
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	db, err := database.Open(cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	user, err := database.UpsertAdmin(db, *username, *email, password)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user %q is ready (id %d)\n", user.Username, user.ID)
}
