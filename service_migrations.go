package policykit

import (
	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an extension to Store
type MigrationService struct {
	*Store
}

// NewMigrationService creates a new migration service extension
func NewMigrationService(store *Store) *MigrationService {
	return &MigrationService{Store: store}
}

// Migrations returns all database migrations required for PolicyKit.
// Use dbkit.Migrate(ctx, service.Migrations()) to run migrations.
// Use dbkit.MigrationStatus(ctx, service.Migrations()) to check status.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "policykit-001",
			Description: "Create policies table",
			SQL: `
                CREATE TABLE IF NOT EXISTS policies (
                    id UUID PRIMARY KEY,
                    name TEXT NOT NULL,
                    user_id TEXT NOT NULL,
                    granter_id TEXT,
                    definition JSONB NOT NULL,
                    delegable BOOLEAN NOT NULL DEFAULT false,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "policykit-002",
			Description: "Index policies by user and delegable flag",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_policies_user_delegable
                    ON policies (user_id, delegable)`,
		},
		{
			ID:          "policykit-003",
			Description: "Create policy_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS policy_audit_log (
                    id UUID PRIMARY KEY,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    target_user_id TEXT NOT NULL,
                    granter_id TEXT,
                    policy_id UUID NOT NULL,
                    policy_name TEXT NOT NULL,
                    definition JSONB,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                )`,
		},
	}
}
