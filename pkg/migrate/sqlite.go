package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for local SQLite runs and tests.
// Postgres enum and jsonb columns collapse to text.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id text PRIMARY KEY,
		name text NOT NULL,
		phone text NOT NULL UNIQUE,
		wallet_balance integer NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
		points integer NOT NULL DEFAULT 0 CHECK (points >= 0),
		due_amount integer NOT NULL DEFAULT 0 CHECK (due_amount >= 0),
		version integer NOT NULL DEFAULT 1,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id text PRIMARY KEY,
		name text NOT NULL,
		phone text NOT NULL UNIQUE,
		kyc_status text NOT NULL DEFAULT 'pending',
		active boolean NOT NULL DEFAULT true,
		total_deliveries integer NOT NULL DEFAULT 0,
		total_earnings integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id text PRIMARY KEY,
		order_number integer NOT NULL UNIQUE,
		customer_id text NOT NULL,
		partner_id text,
		hub_code text,
		status text NOT NULL DEFAULT 'pending',
		version integer NOT NULL DEFAULT 1,
		total_amount integer NOT NULL,
		pickup_address text NOT NULL,
		pickup_slot text NOT NULL,
		delivery_address text NOT NULL,
		delivery_slot text NOT NULL,
		charge_kind text NOT NULL DEFAULT 'none',
		cancellation_fee integer NOT NULL DEFAULT 0,
		cancellation_reason text,
		cancelled_by text,
		delivery_failure_fee integer NOT NULL DEFAULT 0,
		delivery_failure_reasons text NOT NULL DEFAULT '[]',
		delivery_failure_note text,
		charge_assessed_at datetime,
		refund_processed boolean NOT NULL DEFAULT false,
		refund_amount integer NOT NULL DEFAULT 0,
		refund_reason text,
		refunded_at datetime,
		return_state text NOT NULL DEFAULT 'none',
		failed_delivery_attempts integer NOT NULL DEFAULT 0,
		return_requested_at datetime,
		return_resolved_at datetime,
		redelivery_scheduled_at datetime,
		suspension_reason text,
		reached_location_at datetime,
		picked_up_at datetime,
		delivered_to_hub_at datetime,
		hub_approved_at datetime,
		processing_at datetime,
		ironing_at datetime,
		process_completed_at datetime,
		out_for_delivery_at datetime,
		out_for_redelivery_at datetime,
		delivered_at datetime,
		cancelled_at datetime,
		delivery_failed_at datetime,
		suspended_at datetime,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS order_status_events (
		id text PRIMARY KEY,
		order_id text NOT NULL,
		from_status text NOT NULL,
		to_status text NOT NULL,
		return_state text NOT NULL,
		action text NOT NULL,
		actor_role text NOT NULL,
		actor_id text,
		note text,
		created_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id text PRIMARY KEY,
		customer_id text NOT NULL,
		order_id text,
		type text NOT NULL,
		action text NOT NULL,
		source text NOT NULL,
		amount integer NOT NULL CHECK (amount > 0 OR (amount = 0 AND source = 'refund')),
		reason text NOT NULL,
		previous_value integer NOT NULL,
		new_value integer NOT NULL,
		actor_role text NOT NULL,
		actor_id text,
		idempotency_key text NOT NULL UNIQUE,
		created_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS order_charge_settings (
		id integer PRIMARY KEY,
		cancellation_percentage numeric NOT NULL,
		customer_unavailable integer NOT NULL,
		incorrect_address integer NOT NULL,
		refusal_to_accept integer NOT NULL,
		min_failure_fee integer NOT NULL,
		max_failure_fee integer NOT NULL,
		updated_by text,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id text PRIMARY KEY,
		event_type text NOT NULL,
		aggregate_type text NOT NULL,
		aggregate_id text NOT NULL,
		ordering_key text NOT NULL DEFAULT '',
		payload text NOT NULL,
		created_at datetime,
		published_at datetime,
		attempt_count integer NOT NULL DEFAULT 0,
		last_error text
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
		id text PRIMARY KEY,
		event_id text NOT NULL UNIQUE,
		event_type text NOT NULL,
		aggregate_type text NOT NULL,
		aggregate_id text NOT NULL,
		payload text NOT NULL,
		error_reason text NOT NULL,
		error_message text,
		attempt_count integer NOT NULL DEFAULT 0,
		failed_at datetime NOT NULL
	)`,
}

// ApplySQLiteSchema creates every table on a SQLite connection. Callers must
// assign primary keys themselves since SQLite has no gen_random_uuid.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
