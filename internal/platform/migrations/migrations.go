// Package migrations holds the relational schema. Every statement is
// idempotent so Apply can run on each deploy.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('tenant', 'landlord', 'admin')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS houses (
		id UUID PRIMARY KEY,
		landlord_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		tenant_id UUID REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		rent NUMERIC(12, 2) NOT NULL CHECK (rent > 0),
		bedrooms INTEGER NOT NULL DEFAULT 0 CHECK (bedrooms >= 0),
		bathrooms INTEGER NOT NULL DEFAULT 0 CHECK (bathrooms >= 0),
		status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'rented')),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		rental_start_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT houses_occupancy CHECK ((status = 'rented') = (tenant_id IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS houses_landlord_idx ON houses (landlord_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS rent_requests (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		house_id UUID NOT NULL REFERENCES houses(id) ON DELETE CASCADE,
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS rent_requests_one_pending_idx
		ON rent_requests (user_id, house_id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS rent_requests_house_status_idx ON rent_requests (house_id, status)`,
	`CREATE TABLE IF NOT EXISTS lease_agreements (
		id UUID PRIMARY KEY,
		house_id UUID NOT NULL REFERENCES houses(id) ON DELETE CASCADE,
		tenant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		landlord_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		rent_amount NUMERIC(12, 2) NOT NULL,
		deposit_amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
		terms TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'terminated', 'expired')),
		document_url TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT lease_dates CHECK (start_date < end_date)
	)`,
	`CREATE TABLE IF NOT EXISTS rent_payments (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		house_id UUID NOT NULL REFERENCES houses(id) ON DELETE CASCADE,
		due_date TIMESTAMPTZ NOT NULL,
		amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
		paid_amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'overdue')),
		payment_method TEXT,
		payment_date TIMESTAMPTZ,
		receipt_url TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS rent_payments_due_idx ON rent_payments (status, due_date)`,
	`CREATE TABLE IF NOT EXISTS rent_reminders (
		id UUID PRIMARY KEY,
		landlord_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		tenant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		house_id UUID NOT NULL REFERENCES houses(id) ON DELETE CASCADE,
		payment_id UUID REFERENCES rent_payments(id) ON DELETE SET NULL,
		reminder_type TEXT NOT NULL CHECK (reminder_type IN ('payment_due', 'payment_overdue')),
		message TEXT NOT NULL DEFAULT '',
		reminder_date TIMESTAMPTZ NOT NULL,
		is_sent BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS rent_reminders_due_idx ON rent_reminders (reminder_date) WHERE NOT is_sent`,
	`CREATE TABLE IF NOT EXISTS maintenance_requests (
		id UUID PRIMARY KEY,
		house_id UUID NOT NULL REFERENCES houses(id) ON DELETE CASCADE,
		tenant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		landlord_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'Medium',
		status TEXT NOT NULL DEFAULT 'New',
		scheduled_date TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		resolution_notes TEXT NOT NULL DEFAULT '',
		media TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		entity_id UUID,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC)`,
}

// Count is the number of statements Apply executes
func Count() int {
	return len(statements)
}

// Apply creates or upgrades the schema
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
