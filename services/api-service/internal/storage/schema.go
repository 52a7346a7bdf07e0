package storage

import (
	"context"

	"github.com/fracto-health/fracto/libs/db"
)

// schema is applied at startup. The partial unique index on appointments is
// the concurrency-control mechanism for booking: two transactions inserting
// the same (doctor, date, slot) cannot both commit while one of them holds
// the slot, so the conflict surfaces as a unique violation instead of a lost
// update.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id uuid PRIMARY KEY,
	username text NOT NULL UNIQUE,
	password_hash text NOT NULL,
	role text NOT NULL DEFAULT 'User' CHECK (role IN ('User', 'Admin')),
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS specializations (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS specializations_name_unique
	ON specializations (lower(name));

CREATE TABLE IF NOT EXISTS doctors (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	specialization_id uuid NOT NULL REFERENCES specializations (id),
	city text NOT NULL,
	rating numeric(3,2) NOT NULL DEFAULT 0,
	user_id uuid REFERENCES users (id) ON DELETE SET NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id uuid PRIMARY KEY,
	user_id uuid NOT NULL REFERENCES users (id),
	doctor_id uuid NOT NULL REFERENCES doctors (id),
	appointment_date date NOT NULL,
	time_slot text NOT NULL,
	status text NOT NULL DEFAULT 'Booked'
		CHECK (status IN ('Booked', 'Approved', 'Cancelled', 'Rejected')),
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS appointments_slot_unique
	ON appointments (doctor_id, appointment_date, time_slot)
	WHERE status IN ('Booked', 'Approved');

CREATE TABLE IF NOT EXISTS ratings (
	id uuid PRIMARY KEY,
	doctor_id uuid NOT NULL REFERENCES doctors (id) ON DELETE CASCADE,
	user_id uuid NOT NULL REFERENCES users (id),
	rating int NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	UNIQUE (doctor_id, user_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id uuid PRIMARY KEY,
	user_id uuid NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	message text NOT NULL,
	is_read boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS notifications_user_created
	ON notifications (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS outbox_events (
	id bigserial PRIMARY KEY,
	event_id uuid NOT NULL DEFAULT gen_random_uuid(),
	aggregate_type text NOT NULL,
	aggregate_id text NOT NULL,
	event_type text NOT NULL,
	payload jsonb NOT NULL,
	traceparent text NOT NULL DEFAULT '',
	tracestate text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now(),
	published_at timestamptz
);
`

// EnsureSchema creates all tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
