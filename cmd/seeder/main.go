// cmd/seeder/main.go
//
// Applies schema.sql and makes sure the admin user from the environment
// exists with the configured password.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/davencourt/mailliste-backend/internal/auth"
	"github.com/davencourt/mailliste-backend/internal/config"
	"github.com/davencourt/mailliste-backend/internal/db"
	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database:", err)
	}
	defer database.Close()

	schema, err := os.ReadFile("schema.sql")
	if err != nil {
		log.Fatalf("failed to read schema.sql: %v", err)
	}
	if _, err := database.Exec(string(schema)); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	fmt.Println("Schema applied")

	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		log.Fatal("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}
	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Fatal(err)
	}
	userRepo := &repository.UserRepository{DB: database}
	if err := userRepo.Create(&model.User{Username: cfg.Admin.Username, PasswordHash: hash}); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}
	fmt.Printf("Admin user %q ready\n", cfg.Admin.Username)
}
