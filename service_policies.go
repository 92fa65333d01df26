package policykit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// POLICY LIFECYCLE
// ============================================================================

// PolicyGrant describes a policy to be created.
type PolicyGrant struct {
	Name       string
	UserID     string
	GranterID  string
	Definition json.RawMessage
}

// Grant validates and persists a policy from a granter to a user. The full
// validation contract runs here, at creation time: definition
// well-formedness, the self-grant rule, and the ownership subset check
// against the granter's delegable policies. Stored policies are therefore
// structurally valid and the resolver never re-validates them.
//
// Example:
//
//	policy, err := store.Grant(ctx, policykit.PolicyGrant{
//	    Name:       "site operators",
//	    UserID:     techID,
//	    GranterID:  adminID,
//	    Definition: definitionJSON,
//	})
func (s *Store) Grant(ctx context.Context, grant PolicyGrant) (*Policy, error) {
	actorID := GetActorID(ctx)
	if actorID == "" {
		return nil, NewError(ErrNoActorID, "actor ID required to grant a policy")
	}

	def, err := ParseDefinition(grant.Definition)
	if err != nil {
		return nil, err
	}

	policy := NewPolicy(grant.Name, grant.UserID, grant.GranterID, def)
	policy.ID = uuid.NewString()

	if err := s.evaluator.ValidateGrant(ctx, policy); err != nil {
		return nil, err
	}

	record := &PolicyRecord{
		ID:         policy.ID,
		Name:       policy.Name,
		UserID:     policy.UserID,
		GranterID:  policy.GranterID,
		Definition: grant.Definition,
		Delegable:  policy.Delegable,
	}

	err = s.Transaction(ctx, func(ctx context.Context, tx *Store) error {
		result, err := tx.db.NewInsert().Model(record).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreatePolicy").Err(); err != nil {
			return NewError(ErrDatabaseError, "failed to create policy").
				WithPolicy(policy.Name).
				WithUser(policy.UserID).
				WithGranter(policy.GranterID)
		}

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:      actorID,
			Action:       AuditActionGranted,
			TargetUserID: policy.UserID,
			GranterID:    policy.GranterID,
			PolicyID:     policy.ID,
			PolicyName:   policy.Name,
			Definition:   grant.Definition,
			IPAddress:    audit.IPAddress,
			UserAgent:    audit.UserAgent,
			RequestID:    audit.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	return policy, nil
}

// GrantPredefined persists a predefined (implicit or superadmin) policy for
// a user. Predefined policies are granter-less and exempt from the
// delegation subset check; this is the bootstrap path, so a missing actor
// falls back to the target user.
func (s *Store) GrantPredefined(ctx context.Context, userID, name string) (*Policy, error) {
	policy, err := PredefinedPolicy(name, userID)
	if err != nil {
		return nil, err
	}
	raw, err := PredefinedDefinition(name)
	if err != nil {
		return nil, err
	}

	actorID := GetActorID(ctx)
	if actorID == "" {
		actorID = userID
	}

	policy.ID = uuid.NewString()
	record := &PolicyRecord{
		ID:         policy.ID,
		Name:       policy.Name,
		UserID:     policy.UserID,
		Definition: raw,
		Delegable:  policy.Delegable,
	}

	err = s.Transaction(ctx, func(ctx context.Context, tx *Store) error {
		result, err := tx.db.NewInsert().Model(record).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreatePredefinedPolicy").Err(); err != nil {
			return NewError(ErrDatabaseError, "failed to create predefined policy").
				WithPolicy(name).
				WithUser(userID)
		}

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:      actorID,
			Action:       AuditActionGranted,
			TargetUserID: userID,
			PolicyID:     policy.ID,
			PolicyName:   name,
			Definition:   raw,
			IPAddress:    audit.IPAddress,
			UserAgent:    audit.UserAgent,
			RequestID:    audit.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	return policy, nil
}

// Revoke destroys a policy. Only the policy's user or its granter may revoke
// it. Revocation has no cascading effect on anything already acted upon;
// authorization is checked per operation, never cached as a token.
func (s *Store) Revoke(ctx context.Context, policyID string) error {
	actorID := GetActorID(ctx)
	if actorID == "" {
		return NewError(ErrNoActorID, "actor ID required to revoke a policy")
	}

	record, err := s.getPolicyRecord(ctx, policyID)
	if err != nil {
		return err
	}

	if actorID != record.UserID && (record.GranterID == "" || actorID != record.GranterID) {
		return NewError(ErrUnauthorized, "only the policy user or granter can revoke it").
			WithPolicy(record.Name).
			WithUser(record.UserID).
			WithActor(actorID)
	}

	return s.Transaction(ctx, func(ctx context.Context, tx *Store) error {
		result, err := tx.db.NewDelete().Model((*PolicyRecord)(nil)).Where("id = ?", policyID).Exec(ctx)
		if err := dbkit.WithErr(result, err, "RevokePolicy").Err(); err != nil {
			return NewError(ErrDatabaseError, "failed to revoke policy").
				WithPolicy(record.Name).
				WithActor(actorID)
		}

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:      actorID,
			Action:       AuditActionRevoked,
			TargetUserID: record.UserID,
			GranterID:    record.GranterID,
			PolicyID:     record.ID,
			PolicyName:   record.Name,
			Definition:   record.Definition,
			IPAddress:    audit.IPAddress,
			UserAgent:    audit.UserAgent,
			RequestID:    audit.RequestID,
		})
	})
}
