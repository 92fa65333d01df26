package policykit

import (
	"errors"
	"fmt"
)

// Sentinel errors for PolicyKit operations.
var (
	// ErrInvalidDefinition is returned when a policy definition is malformed.
	ErrInvalidDefinition = errors.New("policykit: invalid policy definition")

	// ErrUnknownAction is returned when a statement references an action
	// missing from the action registry.
	ErrUnknownAction = errors.New("policykit: unknown action")

	// ErrUnknownResource is returned when a resource matcher is not
	// resolvable by any registered resource class.
	ErrUnknownResource = errors.New("policykit: unknown resource")

	// ErrSelfGranted is returned when a policy names the same identity as
	// user and granter.
	ErrSelfGranted = errors.New("policykit: policy cannot be self granted")

	// ErrMissingGranter is returned when a regular (non-predefined) policy
	// has no granter.
	ErrMissingGranter = errors.New("policykit: policy granter required")

	// ErrDelegationExceeded is returned when a policy tries to grant rights
	// its granter does not hold through delegable policies.
	ErrDelegationExceeded = errors.New("policykit: delegation exceeds granter permissions")

	// ErrUnauthorized is returned when a user doesn't hold the required
	// permission for an operation.
	ErrUnauthorized = errors.New("policykit: unauthorized")

	// ErrPolicyNotFound is returned when a policy ID does not exist.
	ErrPolicyNotFound = errors.New("policykit: policy not found")

	// ErrUnknownPredefined is returned for an unknown predefined policy name.
	ErrUnknownPredefined = errors.New("policykit: unknown predefined policy")

	// ErrNoUserID is returned when user ID is not found in context.
	ErrNoUserID = errors.New("policykit: no user ID in context")

	// ErrNoActorID is returned when actor ID is not found in context for audit.
	ErrNoActorID = errors.New("policykit: no actor ID in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("policykit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err       error  // Underlying sentinel error
	Message   string // Additional context
	Policy    string // Policy name involved
	UserID    string // User the policy belongs to (if applicable)
	GranterID string // Granter involved (if applicable)
	ActorID   string // Actor who triggered the error (if applicable)
	Action    string // Action matcher involved (if applicable)
	Resource  string // Resource matcher involved (if applicable)
	Statement int    // Statement index within the definition, -1 when unset
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:       err,
		Message:   message,
		Statement: -1,
	}
}

// WithPolicy adds the policy name to the error.
func (e *Error) WithPolicy(name string) *Error {
	e.Policy = name
	return e
}

// WithUser adds the policy user to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithGranter adds the granter to the error.
func (e *Error) WithGranter(granterID string) *Error {
	e.GranterID = granterID
	return e
}

// WithActor adds the acting user to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// WithAction adds the offending action matcher to the error.
func (e *Error) WithAction(action string) *Error {
	e.Action = action
	return e
}

// WithResource adds the offending resource matcher to the error.
func (e *Error) WithResource(matcher string) *Error {
	e.Resource = matcher
	return e
}

// WithStatement adds the offending statement index to the error.
func (e *Error) WithStatement(index int) *Error {
	e.Statement = index
	return e
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsInvalidDefinition checks if an error is a malformed-definition error.
func IsInvalidDefinition(err error) bool {
	return errors.Is(err, ErrInvalidDefinition)
}

// IsUnknownAction checks if an error is due to an unregistered action.
func IsUnknownAction(err error) bool {
	return errors.Is(err, ErrUnknownAction)
}

// IsUnknownResource checks if an error is due to an unresolvable resource matcher.
func IsUnknownResource(err error) bool {
	return errors.Is(err, ErrUnknownResource)
}

// IsSelfGranted checks if an error is due to a self-granted policy.
func IsSelfGranted(err error) bool {
	return errors.Is(err, ErrSelfGranted)
}

// IsDelegationExceeded checks if an error is due to ownership-exceeding delegation.
func IsDelegationExceeded(err error) bool {
	return errors.Is(err, ErrDelegationExceeded)
}
