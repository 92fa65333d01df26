package policykit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func (s *Store) getPolicyRecord(ctx context.Context, policyID string) (*PolicyRecord, error) {
	var record PolicyRecord
	err := dbkit.WithErr1(s.db.NewSelect().Model(&record).Where("id = ?", policyID).Limit(1).Scan(ctx), "GetPolicyRecord").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrPolicyNotFound, policyID)
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	return dbkit.WithErr1(err, "LogAudit").Err()
}
