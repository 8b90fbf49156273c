package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and brings the schema up to date.
func Init(databaseURL string) {
	var err error
	Conn, err = pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureAccountsTable()
	ensureTimebankTables()
	ensureLedgerTable()
	ensureNotificationsTable()
	ensureMessagesTable()
}

// ensureAccountsTable creates the login accounts table if missing.
func ensureAccountsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS accounts (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member','admin')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
    `)
	if err != nil {
		log.Printf("failed to create accounts table: %v", err)
	}
}

// ensureTimebankTables creates the core ledger tables if missing.
func ensureTimebankTables() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            owner_identity TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            bio TEXT NOT NULL DEFAULT '',
            time_balance BIGINT NOT NULL DEFAULT 0,
            time_contributed BIGINT NOT NULL DEFAULT 0,
            feedback_count BIGINT NOT NULL DEFAULT 0,
            avg_rating BIGINT NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            is_arbiter BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS skill_categories (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            skill_group TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS skill_providers (
            skill_id BIGINT NOT NULL REFERENCES skill_categories(id),
            user_id BIGINT NOT NULL REFERENCES users(id),
            hourly_rate BIGINT NOT NULL DEFAULT 0,
            experience_level TEXT NOT NULL DEFAULT '',
            availability TEXT NOT NULL DEFAULT '',
            endorsement_count BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (skill_id, user_id)
        );

        CREATE TABLE IF NOT EXISTS services (
            id BIGSERIAL PRIMARY KEY,
            provider_id BIGINT NOT NULL REFERENCES users(id),
            receiver_id BIGINT NOT NULL REFERENCES users(id),
            skill_id BIGINT NOT NULL REFERENCES skill_categories(id),
            description TEXT NOT NULL DEFAULT '',
            estimated_minutes BIGINT NOT NULL,
            actual_minutes BIGINT NULL,
            notes TEXT NOT NULL DEFAULT '',
            status SMALLINT NOT NULL DEFAULT 1,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            started_at TIMESTAMP WITH TIME ZONE NULL,
            completed_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_services_provider ON services(provider_id);
        CREATE INDEX IF NOT EXISTS idx_services_receiver ON services(receiver_id);

        CREATE TABLE IF NOT EXISTS disputes (
            id BIGSERIAL PRIMARY KEY,
            service_id BIGINT NOT NULL REFERENCES services(id),
            raised_by BIGINT NOT NULL REFERENCES users(id),
            description TEXT NOT NULL DEFAULT '',
            status SMALLINT NOT NULL DEFAULT 1,
            arbiter_id BIGINT NULL REFERENCES users(id),
            resolution TEXT NOT NULL DEFAULT '',
            time_adjustment BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            resolved_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_disputes_service ON disputes(service_id);
        CREATE INDEX IF NOT EXISTS idx_disputes_status ON disputes(status);

        CREATE TABLE IF NOT EXISTS feedback (
            service_id BIGINT PRIMARY KEY REFERENCES services(id),
            rating BIGINT NOT NULL,
            comment TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS endorsements (
            skill_id BIGINT NOT NULL REFERENCES skill_categories(id),
            endorsed_user_id BIGINT NOT NULL REFERENCES users(id),
            endorser_user_id BIGINT NOT NULL REFERENCES users(id),
            comment TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (skill_id, endorsed_user_id, endorser_user_id)
        );

        CREATE TABLE IF NOT EXISTS community_fund (
            id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
            balance BIGINT NOT NULL DEFAULT 0
        );
        INSERT INTO community_fund (id, balance) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
    `)
	if err != nil {
		log.Printf("failed to create timebank tables: %v", err)
	}
}

// ensureLedgerTable creates the balance movement journal if missing.
func ensureLedgerTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS ledger_entries (
            id UUID PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL,
            kind TEXT NOT NULL,
            reference TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_ledger_user_created ON ledger_entries(user_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create ledger table: %v", err)
	}
}

// ensureNotificationsTable creates the in-app alerts table if missing.
func ensureNotificationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT,
            reference TEXT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_account_created ON notifications(account_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_account_unread ON notifications(account_id) WHERE read_at IS NULL;
    `)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}

// ensureMessagesTable creates the per-service chat table if missing.
func ensureMessagesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            service_id BIGINT NOT NULL REFERENCES services(id) ON DELETE CASCADE,
            sender_id BIGINT NOT NULL REFERENCES users(id),
            recipient_id BIGINT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_messages_service_created ON messages(service_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create messages table: %v", err)
	}
}
