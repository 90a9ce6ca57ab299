package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS lessons (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title           VARCHAR(255)    NOT NULL DEFAULT '',
		location        VARCHAR(255)    NOT NULL DEFAULT '',
		price           DOUBLE          NOT NULL DEFAULT 0,
		available_seats INT UNSIGNED    NOT NULL DEFAULT 0,
		description     TEXT            NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		full_name    VARCHAR(255)    NOT NULL,
		phone_number VARCHAR(64)     NOT NULL,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_lessons (
		order_id  BIGINT UNSIGNED NOT NULL,
		position  INT UNSIGNED    NOT NULL,
		lesson_id VARCHAR(64)     NOT NULL,
		quantity  INT UNSIGNED    NOT NULL,
		PRIMARY KEY (order_id, position),
		CONSTRAINT fk_order_lessons_order FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the lessons, orders and order_lessons tables when
// they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
