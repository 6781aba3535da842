package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  user_id    TEXT        PRIMARY KEY,
  role       TEXT        NOT NULL CHECK (role IN ('buyer', 'factory', 'admin')),
  factory_id TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_evidence",
		SQL: `CREATE TABLE IF NOT EXISTS evidence (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name            TEXT        NOT NULL,
  doc_type        TEXT        NOT NULL,
  factory_user_id TEXT        NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_evidence_versions",
		SQL: `CREATE TABLE IF NOT EXISTS evidence_versions (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  evidence_id    UUID        NOT NULL REFERENCES evidence (id) ON DELETE CASCADE,
  version_number INTEGER     NOT NULL CHECK (version_number >= 1),
  notes          TEXT        NOT NULL DEFAULT '',
  expiry_date    DATE,
  storage_path   TEXT        NOT NULL UNIQUE,
  created_by     TEXT        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (evidence_id, version_number)
);`,
	},
	{
		Name: "create_table_requests",
		SQL: `CREATE TABLE IF NOT EXISTS requests (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title           TEXT        NOT NULL,
  buyer_user_id   TEXT        NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
  factory_user_id TEXT        NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
  status          TEXT        NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'cancelled')),
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_request_items",
		SQL: `CREATE TABLE IF NOT EXISTS request_items (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  request_id          UUID        NOT NULL REFERENCES requests (id) ON DELETE CASCADE,
  doc_type            TEXT        NOT NULL,
  status              TEXT        NOT NULL CHECK (status IN ('pending', 'fulfilled', 'rejected')),
  evidence_version_id UUID        REFERENCES evidence_versions (id) ON DELETE SET NULL,
  fulfilled_at        TIMESTAMPTZ,
  fulfilled_by        TEXT,
  notes               TEXT        NOT NULL DEFAULT '',
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_access_grants",
		SQL: `CREATE TABLE IF NOT EXISTS access_grants (
  version_id UUID        NOT NULL REFERENCES evidence_versions (id) ON DELETE CASCADE,
  user_id    TEXT        NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
  granted_by TEXT        NOT NULL,
  granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (version_id, user_id)
);`,
	},
	{
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  ts               TIMESTAMPTZ NOT NULL DEFAULT now(),
  actor_user_id    TEXT,
  actor_role       TEXT,
  actor_factory_id TEXT,
  action           TEXT        NOT NULL,
  object_type      TEXT        NOT NULL,
  object_id        TEXT        NOT NULL,
  metadata         JSONB       NOT NULL DEFAULT '{}'::jsonb
);`,
	},
	{
		Name: "create_index_evidence_factory",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_evidence_factory ON evidence (factory_user_id);`,
	},
	{
		Name: "create_index_versions_evidence",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_versions_evidence ON evidence_versions (evidence_id);`,
	},
	{
		Name: "create_index_requests_buyer",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_requests_buyer ON requests (buyer_user_id);`,
	},
	{
		Name: "create_index_requests_factory_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_requests_factory_status ON requests (factory_user_id, status);`,
	},
	{
		Name: "create_index_request_items_request",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_request_items_request ON request_items (request_id);`,
	},
	{
		Name: "create_index_audit_logs_ts",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_ts ON audit_logs (ts DESC);`,
	},
}

// EnsureMigrated checks if the 'audit_logs' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.audit_logs') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
