package policykit

import "time"

// AuditLogFilter provides options for filtering audit log queries.
type AuditLogFilter struct {
	// Filter by actor who performed the action
	ActorID string

	// Filter by target user of the action
	TargetUserID string

	// Filter by granter
	GranterID string

	// Filter by policy
	PolicyID string

	// Filter by action type ("granted" or "revoked")
	Action string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f AuditLogFilter) WithActor(actorID string) AuditLogFilter {
	f.ActorID = actorID
	return f
}

// WithTargetUser sets the target user ID filter.
func (f AuditLogFilter) WithTargetUser(userID string) AuditLogFilter {
	f.TargetUserID = userID
	return f
}

// WithGranter sets the granter ID filter.
func (f AuditLogFilter) WithGranter(granterID string) AuditLogFilter {
	f.GranterID = granterID
	return f
}

// WithPolicy sets the policy ID filter.
func (f AuditLogFilter) WithPolicy(policyID string) AuditLogFilter {
	f.PolicyID = policyID
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = string(action)
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// PolicyFilter provides options for listing stored policies.
type PolicyFilter struct {
	// Filter by the user the policies are granted to
	UserID string

	// Filter by granter
	GranterID string

	// Filter by name
	Name string

	// Filter by delegable flag; nil means both
	Delegable *bool

	// Pagination
	Limit  int
	Offset int
}

// NewPolicyFilter creates a new PolicyFilter with default values.
func NewPolicyFilter() PolicyFilter {
	return PolicyFilter{
		Limit: 100,
	}
}

// WithUser sets the user filter.
func (f PolicyFilter) WithUser(userID string) PolicyFilter {
	f.UserID = userID
	return f
}

// WithGranter sets the granter filter.
func (f PolicyFilter) WithGranter(granterID string) PolicyFilter {
	f.GranterID = granterID
	return f
}

// WithName sets the name filter.
func (f PolicyFilter) WithName(name string) PolicyFilter {
	f.Name = name
	return f
}

// WithDelegable sets the delegable filter.
func (f PolicyFilter) WithDelegable(delegable bool) PolicyFilter {
	f.Delegable = &delegable
	return f
}

// WithPagination sets both limit and offset.
func (f PolicyFilter) WithPagination(limit, offset int) PolicyFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
