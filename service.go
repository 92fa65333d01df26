package policykit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Store persists policies and their audit trail, and acts as the
// PolicySource for the engine. It integrates with the database through
// dbkit with enhanced error handling.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. Errors include operation names,
// database context, and preserve original error types for classification.
//
// Example error handling:
//
//	_, err := store.Grant(ctx, grant)
//	if err != nil {
//	    if policykit.IsDelegationExceeded(err) {
//	        // Granter does not hold what the policy tries to grant
//	    }
//	    if dbkit.IsDuplicate(err) {
//	        // Handle duplicate policy
//	    }
//	}
type Store struct {
	db        dbkit.IDB
	actions   *ActionRegistry
	resources *ResourceRegistry
	evaluator *Evaluator
	txMonitor *transactionMonitor
}

// NewStore creates a new policy store. The returned store is wired to an
// Evaluator backed by itself, so grant validation and permission checks see
// the stored policies.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := policykit.NewStore(db, policykit.DefaultActions(), resources)
func NewStore(db dbkit.IDB, actions *ActionRegistry, resources *ResourceRegistry) *Store {
	s := &Store{
		db:        db,
		actions:   actions,
		resources: resources,
		txMonitor: newTransactionMonitor(),
	}
	s.evaluator = NewEvaluator(s, actions, resources)
	return s
}

// Evaluator returns the permission evaluator backed by this store.
func (s *Store) Evaluator() *Evaluator {
	return s.evaluator
}

// Actions returns the action registry.
func (s *Store) Actions() *ActionRegistry {
	return s.actions
}

// Resources returns the resource registry.
func (s *Store) Resources() *ResourceRegistry {
	return s.resources
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Store) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]PolicyAuditLog, error) {
	var logs []PolicyAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetUserID != "" {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.GranterID != "" {
		q = q.Where("granter_id = ?", filter.GranterID)
	}
	if filter.PolicyID != "" {
		q = q.Where("policy_id = ?", filter.PolicyID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, err
	}

	return logs, nil
}
