package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order on startup.  Every statement is idempotent.
// attendees cascade with their event so deleting an event clears its ledger
// in the same statement.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		username      VARCHAR(100) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id                 CHAR(36) PRIMARY KEY,
		owner_id           BIGINT UNSIGNED NOT NULL,
		name               VARCHAR(255) NOT NULL,
		location           VARCHAR(255) NOT NULL,
		event_date         VARCHAR(32) NOT NULL,
		event_time         VARCHAR(32) NOT NULL,
		ticket_quantity    INT UNSIGNED NOT NULL,
		tickets_sold       INT UNSIGNED NOT NULL DEFAULT 0,
		total_tickets      INT UNSIGNED NOT NULL,
		ticket_price_cents BIGINT UNSIGNED NOT NULL,
		image_ref          VARCHAR(1024) NULL,
		created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_events_owner (owner_id),
		KEY idx_events_date (event_date),
		CONSTRAINT fk_events_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT chk_events_counters CHECK (tickets_sold + ticket_quantity = total_tickets)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS attendees (
		id                   CHAR(36) PRIMARY KEY,
		event_id             CHAR(36) NOT NULL,
		buyer_id             BIGINT UNSIGNED NULL,
		name                 VARCHAR(255) NOT NULL,
		ticket_count         INT UNSIGNED NOT NULL,
		special_requirements TEXT NULL,
		created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_attendees_event (event_id, created_at),
		CONSTRAINT fk_attendees_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
