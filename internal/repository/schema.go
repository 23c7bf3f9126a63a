package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(db *sqlx.DB) error {
	statements := []struct {
		object string
		ddl    string
	}{
		{"shows", `
CREATE TABLE IF NOT EXISTS shows (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title VARCHAR(255) NOT NULL,
	venue VARCHAR(255) NOT NULL,
	show_date DATE NOT NULL,
	show_time VARCHAR(8) NOT NULL,
	sale_status VARCHAR(16) NOT NULL DEFAULT 'UPCOMING',
	auto_update_status BOOLEAN NOT NULL DEFAULT TRUE
);`},
		{"ticket_classes", `
CREATE TABLE IF NOT EXISTS ticket_classes (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	show_id UUID NOT NULL REFERENCES shows (id),
	type VARCHAR(64) NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity >= 0),
	available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
	version INTEGER NOT NULL DEFAULT 0
);`},
		{"invoices", `
CREATE TABLE IF NOT EXISTS invoices (
	id UUID PRIMARY KEY,
	payment_id VARCHAR(64) NOT NULL,
	status VARCHAR(32) NOT NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	ticket_details JSONB NOT NULL,
	version INTEGER NOT NULL DEFAULT 0,
	created_by VARCHAR(64) NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
		{"invoices_waiting_expiry_idx", `
CREATE INDEX IF NOT EXISTS invoices_waiting_expiry_idx
	ON invoices (expires_at) WHERE status = 'WAITING_PAYMENT';`},
		{"tickets", `
CREATE TABLE IF NOT EXISTS tickets (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	ticket_class_id UUID NOT NULL REFERENCES ticket_classes (id),
	invoice_id UUID NOT NULL REFERENCES invoices (id),
	end_user_id VARCHAR(64) NOT NULL,
	checked_in_at TIMESTAMP WITH TIME ZONE
);`},
		{"show_auth_codes", `
CREATE TABLE IF NOT EXISTS show_auth_codes (
	show_id UUID PRIMARY KEY,
	auth_code VARCHAR(64) NOT NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);`},
		{"release_log", `
CREATE TABLE IF NOT EXISTS release_log (
	invoice_id UUID PRIMARY KEY,
	released_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`},
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(context.Background(), stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.object, err)
		}
	}

	return nil
}
