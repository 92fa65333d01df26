package policykit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// DATA RETRIEVAL
// ============================================================================

// PoliciesByUser returns every policy granted to a user plus the user's
// implicit baseline policy. Implements PolicySource.
func (s *Store) PoliciesByUser(ctx context.Context, userID string) ([]*Policy, error) {
	var records []PolicyRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&records).Where("user_id = ?", userID).Order("created_at ASC").Scan(ctx), "PoliciesByUser").Err()
	if err != nil {
		return nil, err
	}
	return s.toPolicies(records, userID)
}

// DelegablePoliciesByUser returns the user's delegable policies plus the
// implicit policy, which is itself delegable. Implements PolicySource.
func (s *Store) DelegablePoliciesByUser(ctx context.Context, userID string) ([]*Policy, error) {
	var records []PolicyRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&records).Where("user_id = ? AND delegable", userID).Order("created_at ASC").Scan(ctx), "DelegablePoliciesByUser").Err()
	if err != nil {
		return nil, err
	}
	return s.toPolicies(records, userID)
}

// GetPolicy retrieves a single stored policy by ID.
func (s *Store) GetPolicy(ctx context.Context, policyID string) (*Policy, error) {
	record, err := s.getPolicyRecord(ctx, policyID)
	if err != nil {
		return nil, err
	}
	return record.ToPolicy()
}

// ListPolicies retrieves stored policy records with optional filters.
func (s *Store) ListPolicies(ctx context.Context, filter PolicyFilter) ([]PolicyRecord, error) {
	var records []PolicyRecord
	q := s.db.NewSelect().Model(&records)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.GranterID != "" {
		q = q.Where("granter_id = ?", filter.GranterID)
	}
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}
	if filter.Delegable != nil {
		q = q.Where("delegable = ?", *filter.Delegable)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("created_at ASC")
	err := dbkit.WithErr1(q.Scan(ctx), "ListPolicies").Err()
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) toPolicies(records []PolicyRecord, userID string) ([]*Policy, error) {
	policies := make([]*Policy, 0, len(records)+1)
	for i := range records {
		policy, err := records[i].ToPolicy()
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	policies = append(policies, Implicit(userID))
	return policies, nil
}
