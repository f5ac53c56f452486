package database

import (
	"context"
	"database/sql"
)

// schema is applied on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		token_hash    CHAR(64)     NOT NULL,
		principal_id  BIGINT       NOT NULL,
		display_name  VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL,
		backend_token TEXT         NOT NULL,
		expires_at    DATETIME     NOT NULL,
		revoked_at    DATETIME     NULL,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_sessions_token (token_hash),
		KEY idx_sessions_principal (principal_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS booking_submissions (
		id             CHAR(36)    NOT NULL PRIMARY KEY,
		draft_id       CHAR(36)    NOT NULL,
		customer_id    BIGINT      NOT NULL,
		booking_id     BIGINT      NULL,
		state          VARCHAR(20) NOT NULL,
		detail_payload JSON        NULL,
		attempts       INT         NOT NULL DEFAULT 0,
		last_error     TEXT        NULL,
		created_at     DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_submissions_state (state, updated_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS favorites (
		customer_id BIGINT   NOT NULL,
		room_id     BIGINT   NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (customer_id, room_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the BFF owns.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
