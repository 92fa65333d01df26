package policykit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Store) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// AuditReader defines the audit log query interface
type AuditReader interface {
	GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]PolicyAuditLog, error)
}

// PolicyManager defines the policy lifecycle interface
type PolicyManager interface {
	Grant(ctx context.Context, grant PolicyGrant) (*Policy, error)
	GrantPredefined(ctx context.Context, userID, name string) (*Policy, error)
	Revoke(ctx context.Context, policyID string) error
}
