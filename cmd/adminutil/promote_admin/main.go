package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/sudo-init-do/timebank/internal/config"
	"github.com/sudo-init-do/timebank/internal/db"
)

func main() {
	email := flag.String("email", "", "Email of the account to promote to admin")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_admin/main.go -email user@example.com")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	db.Init(cfg.DatabaseURL)

	ct, err := db.Conn.Exec(context.Background(), `UPDATE accounts SET role = 'admin' WHERE email = $1`, *email)
	if err != nil {
		log.Fatalf("failed to promote account to admin: %v", err)
	}

	if ct.RowsAffected() == 0 {
		log.Fatalf("no account found with email: %s", *email)
	}

	fmt.Printf("Account %s promoted to admin.\n", *email)
}
