package commands

import (
	"context"
	"database/sql"

	"attendance/workforce/internal/pkg/repository/postgresql"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "Create table: tenants.",
		Query: `
        CREATE TABLE IF NOT EXISTS tenants (
            id serial primary key,
            name text not null,
            timezone text not null default 'UTC',
            created_at timestamptz default now(),
            created_by int,
            updated_at timestamptz,
            updated_by int,
            deleted_at timestamptz,
            deleted_by int
        );`,
	},
	{
		Index:       2,
		Description: "CREATE TYPE \"user_role\" AS ENUM",
		Query: `
        CREATE TYPE "user_role" AS ENUM ('EMPLOYEE', 'ADMIN', 'SUPER_ADMIN');`,
	},
	{
		Index:       3,
		Description: "Create table: users.",
		Query: `
        CREATE TABLE IF NOT EXISTS users (
            id serial primary key,
            tenant_id int not null references tenants(id),
            employee_id text,
            password text,
            role user_role,
            full_name text,
            phone varchar(32),
            locale varchar(8),
            face_photo_url text,
            points_balance int not null default 0,
            created_at timestamptz default now(),
            created_by int references users(id),
            updated_at timestamptz,
            updated_by int references users(id),
            deleted_at timestamptz,
            deleted_by int references users(id)
        );
        CREATE UNIQUE INDEX IF NOT EXISTS users_tenant_employee_uidx
            ON users (tenant_id, employee_id) WHERE deleted_at IS NULL;`,
	},
	{
		Index:       4,
		Description: "Create tenant 1 with employee_id: Admin01, password: 1",
		Query: `
        INSERT INTO tenants(id, name, timezone)
        SELECT 1, 'Default', 'UTC'
        WHERE NOT EXISTS (SELECT id FROM tenants WHERE id = 1);
        SELECT setval('tenants_id_seq', (SELECT max(id) FROM tenants));

        INSERT INTO users(tenant_id, employee_id, role, password, full_name)
        SELECT 1, 'Admin01', 'ADMIN', '$2a$10$NKtnMwDPFSQLG6uOi4Zqheru5Ygbj9TWFHjpl478rRSaO5cJ9QuH2', 'Administrator'
        WHERE NOT EXISTS (SELECT employee_id FROM users WHERE tenant_id = 1 AND employee_id = 'Admin01');`,
	},
	{
		Index:       5,
		Description: "Create table: locations.",
		Query: `
        CREATE TABLE IF NOT EXISTS locations (
            id serial primary key,
            tenant_id int not null references tenants(id),
            name text not null,
            latitude double precision not null,
            longitude double precision not null,
            radius double precision not null default 0,
            polygon_coords jsonb,
            is_active boolean not null default true,
            use_custom_points boolean not null default false,
            custom_points int not null default 0,
            created_at timestamptz default now(),
            created_by int references users(id),
            updated_at timestamptz,
            updated_by int references users(id),
            deleted_at timestamptz,
            deleted_by int references users(id)
        );
        CREATE INDEX IF NOT EXISTS locations_tenant_active_idx ON locations (tenant_id) WHERE is_active AND deleted_at IS NULL;`,
	},
	{
		Index:       6,
		Description: "Create table: point_rules.",
		Query: `
        CREATE TABLE IF NOT EXISTS point_rules (
            id serial primary key,
            tenant_id int not null references tenants(id),
            name text,
            rule_type text not null,
            points_amount int not null default 0,
            conditions jsonb,
            is_active boolean not null default true,
            created_at timestamptz default now(),
            created_by int references users(id),
            updated_at timestamptz,
            updated_by int references users(id),
            deleted_at timestamptz,
            deleted_by int references users(id)
        );`,
	},
	{
		Index:       7,
		Description: "Create table: attendance_events.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance_events (
            id uuid primary key,
            user_id int not null references users(id),
            tenant_id int not null references tenants(id),
            state text not null,
            check_in_time timestamptz not null,
            check_out_time timestamptz,
            check_in_latitude double precision,
            check_in_longitude double precision,
            check_out_latitude double precision,
            check_out_longitude double precision,
            check_in_location_id int references locations(id),
            check_out_location_id int references locations(id),
            face_verified boolean not null default false,
            face_confidence double precision not null default 0,
            face_photo_url text,
            fraud_score int not null default 0,
            fraud_indicators jsonb,
            points_earned int not null default 0,
            is_valid boolean not null default true,
            validity_note text,
            created_at timestamptz not null default now(),
            updated_at timestamptz
        );
        CREATE INDEX IF NOT EXISTS attendance_events_user_time_idx ON attendance_events (user_id, check_in_time DESC);
        CREATE INDEX IF NOT EXISTS attendance_events_tenant_time_idx ON attendance_events (tenant_id, check_in_time DESC);`,
	},
	{
		Index:       8,
		Description: "One open attendance event per user.",
		Query: `
        CREATE UNIQUE INDEX IF NOT EXISTS attendance_events_one_open_uidx
            ON attendance_events (user_id) WHERE check_out_time IS NULL;`,
	},
	{
		Index:       9,
		Description: "Create table: points_ledger.",
		Query: `
        CREATE TABLE IF NOT EXISTS points_ledger (
            id serial primary key,
            tenant_id int not null references tenants(id),
            user_id int not null references users(id),
            attendance_id uuid references attendance_events(id),
            type text not null,
            points int not null,
            balance_after int not null,
            description text,
            created_at timestamptz not null default now()
        );
        CREATE INDEX IF NOT EXISTS points_ledger_user_time_idx ON points_ledger (user_id, created_at);`,
	},
}

// MigrateUP applies every scheme entry above the recorded version. A failed
// entry marks the version dirty; the next run retries it first.
func MigrateUP(ctx context.Context, db *postgresql.Database, log *zap.Logger) error {
	var (
		version int
		dirty   bool
		er      sql.NullString
	)

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text)`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	err := db.QueryRowContext(ctx, "SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err = db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (0, false)`); err != nil {
			return errors.Wrap(err, "initialising schema_migrations")
		}
	} else if err != nil {
		return errors.Wrap(err, "reading schema_migrations")
	}

	if dirty {
		log.Warn("retrying dirty migration", zap.Int("version", version), zap.String("error", er.String))
		version--
	}

	for _, s := range scheme {
		if s.Index <= version {
			continue
		}

		if _, err = db.ExecContext(ctx, s.Query); err != nil {
			if _, uerr := db.ExecContext(ctx, `UPDATE schema_migrations SET error = ?, version = ?, dirty = true`, err.Error(), s.Index); uerr != nil {
				return errors.Wrap(uerr, "recording migration error")
			}
			return errors.Wrapf(err, "migrate version %d", s.Index)
		}

		if _, err = db.ExecContext(ctx, `UPDATE schema_migrations SET version = ?, dirty = false, error = null`, s.Index); err != nil {
			return errors.Wrap(err, "recording migration version")
		}
		log.Info("migrated", zap.Int("version", s.Index), zap.String("description", s.Description))
	}

	return nil
}
