package policykit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PolicyRecord is the stored form of a policy. The definition is kept as the
// original JSON so the record is also the authoring-time audit source.
type PolicyRecord struct {
	bun.BaseModel `bun:"table:policies,alias:p"`

	ID         string          `bun:"id,pk,type:uuid"`
	Name       string          `bun:"name,notnull"`
	UserID     string          `bun:"user_id,notnull"`
	GranterID  string          `bun:"granter_id"` // empty for predefined grants
	Definition json.RawMessage `bun:"definition,type:jsonb,notnull"`
	Delegable  bool            `bun:"delegable,notnull"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

// ToPolicy parses the stored definition into an engine-level policy.
func (r *PolicyRecord) ToPolicy() (*Policy, error) {
	def, err := ParseDefinition(r.Definition)
	if err != nil {
		return nil, err
	}
	return &Policy{
		ID:         r.ID,
		Name:       r.Name,
		UserID:     r.UserID,
		GranterID:  r.GranterID,
		Definition: def,
		Delegable:  r.Delegable,
	}, nil
}

// PolicyAuditLog records every policy grant and revoke for compliance and
// debugging.
type PolicyAuditLog struct {
	bun.BaseModel `bun:"table:policy_audit_log,alias:pal"`

	ID        string    `bun:"id,pk,type:uuid"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	ActorID string `bun:"actor_id,notnull"`

	// What action was performed
	Action string `bun:"action,notnull"` // "granted", "revoked"

	// Target of the action
	TargetUserID string          `bun:"target_user_id,notnull"`
	GranterID    string          `bun:"granter_id"`
	PolicyID     string          `bun:"policy_id,notnull"`
	PolicyName   string          `bun:"policy_name,notnull"`
	Definition   json.RawMessage `bun:"definition,type:jsonb"` // snapshot at grant/revoke time

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	// Additional context (JSON)
	Metadata map[string]any `bun:"metadata,type:jsonb"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionGranted AuditAction = "granted"
	AuditActionRevoked AuditAction = "revoked"
)

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID      string
	Action       AuditAction
	TargetUserID string
	GranterID    string
	PolicyID     string
	PolicyName   string
	Definition   json.RawMessage
	IPAddress    string
	UserAgent    string
	RequestID    string
	Metadata     map[string]any
}

// ToModel converts an AuditEntry to a PolicyAuditLog model.
func (e *AuditEntry) ToModel() *PolicyAuditLog {
	return &PolicyAuditLog{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		ActorID:      e.ActorID,
		Action:       string(e.Action),
		TargetUserID: e.TargetUserID,
		GranterID:    e.GranterID,
		PolicyID:     e.PolicyID,
		PolicyName:   e.PolicyName,
		Definition:   e.Definition,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		RequestID:    e.RequestID,
		Metadata:     e.Metadata,
	}
}
