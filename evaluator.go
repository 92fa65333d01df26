package policykit

import "context"

// PolicySource supplies the policies visible to an evaluation. The Store
// implements it against the database; tests typically use an in-memory map.
type PolicySource interface {
	// PoliciesByUser returns every policy granted to a user, including the
	// user's implicit baseline policy.
	PoliciesByUser(ctx context.Context, userID string) ([]*Policy, error)

	// DelegablePoliciesByUser returns the subset of a user's policies that
	// carry the delegable flag, as consulted when verifying a grant chain.
	DelegablePoliciesByUser(ctx context.Context, userID string) ([]*Policy, error)
}

// Evaluator is the top-level permission checking API. It is stateless apart
// from its configuration and safe for concurrent use; policies and resource
// data are loaded per call, never cached.
type Evaluator struct {
	source    PolicySource
	actions   *ActionRegistry
	resources *ResourceRegistry
}

// NewEvaluator creates an Evaluator over a policy source and the action and
// resource registries.
func NewEvaluator(source PolicySource, actions *ActionRegistry, resources *ResourceRegistry) *Evaluator {
	return &Evaluator{
		source:    source,
		actions:   actions,
		resources: resources,
	}
}

// Can reports whether the user may perform the action on the resource.
// Lookup failures collapse to false.
func (e *Evaluator) Can(ctx context.Context, action string, resource Resource, userID string) bool {
	result, err := e.Authorize(ctx, action, resource, userID)
	if err != nil {
		return false
	}
	return result != nil
}

// Authorize resolves the concrete resource subset the user may act upon, or
// nil when not authorized. Rejection is a normal outcome, never an error;
// the error return only carries policy source failures.
func (e *Evaluator) Authorize(ctx context.Context, action string, resource Resource, userID string) (Set, error) {
	policies, err := e.source.PoliciesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.checkAll(ctx, action, resource, policies, userID, granterSet{})
}

// CheckAll resolves an action/resource pair against an explicit policy list
// instead of the user's stored policies. Grant validation uses it to ask
// "what do the granter's delegable policies alone permit?".
func (e *Evaluator) CheckAll(ctx context.Context, action string, resource Resource, policies []*Policy, userID string) (Set, error) {
	return e.checkAll(ctx, action, resource, policies, userID, granterSet{})
}

// ValidateGrant checks everything a policy authoring tool must enforce
// before persisting a policy: definition well-formedness, the self-grant and
// missing-granter rules, and the ownership subset check: the granter's own
// delegable policies must already permit every action/resource combination
// the new policy would grant.
func (e *Evaluator) ValidateGrant(ctx context.Context, policy *Policy) error {
	if policy.Definition == nil {
		return NewError(ErrInvalidDefinition, "is missing").WithPolicy(policy.Name)
	}
	if err := policy.Definition.Validate(e.actions, e.resources); err != nil {
		return err
	}

	if policy.IsSelfGranted() {
		return NewError(ErrSelfGranted, "").
			WithPolicy(policy.Name).
			WithUser(policy.UserID)
	}
	if policy.IsImplicit() {
		return NewError(ErrMissingGranter, "").
			WithPolicy(policy.Name).
			WithUser(policy.UserID)
	}

	granterPolicies, err := e.source.DelegablePoliciesByUser(ctx, policy.GranterID)
	if err != nil {
		return err
	}

	for i := range policy.Definition.Statements {
		st := &policy.Definition.Statements[i]
		for _, action := range st.Actions {
			for _, matcher := range st.Resources {
				for _, target := range e.resources.Find(matcher) {
					held, err := e.CheckAll(ctx, action, target, granterPolicies, policy.GranterID)
					if err != nil {
						return err
					}
					if held == nil {
						return NewError(ErrDelegationExceeded, "").
							WithPolicy(policy.Name).
							WithGranter(policy.GranterID).
							WithStatement(i).
							WithAction(action).
							WithResource(matcher)
					}
				}
			}
		}
	}

	return nil
}
