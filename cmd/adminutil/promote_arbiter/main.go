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

// promote_arbiter flags a member as dispute arbiter by account email.
// Usage:
//   go run cmd/adminutil/promote_arbiter/main.go -email user@example.com
func main() {
    email := flag.String("email", "", "Email of the account whose member profile becomes an arbiter")
    flag.Parse()

    if *email == "" {
        log.Fatalf("usage: go run cmd/adminutil/promote_arbiter/main.go -email user@example.com")
    }

    _ = godotenv.Load()
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("config error: %v", err)
    }
    db.Init(cfg.DatabaseURL)

    ct, err := db.Conn.Exec(context.Background(), `
        UPDATE users SET is_arbiter = TRUE
        WHERE owner_identity IN (SELECT id::text FROM accounts WHERE email = $1)
    `, *email)
    if err != nil {
        log.Fatalf("failed to promote member to arbiter: %v", err)
    }

    if ct.RowsAffected() == 0 {
        log.Fatalf("no member profile found for email: %s", *email)
    }

    fmt.Printf("Member for %s promoted to arbiter.\n", *email)
}
