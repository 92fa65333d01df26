package policykit

import "context"

// granterSet is the visited-granter state threaded through the recursion.
// It is copied on every recursion step so sibling branches of a batch check
// can never short-circuit each other's cycle detection.
type granterSet map[string]struct{}

func (g granterSet) has(id string) bool {
	_, ok := g[id]
	return ok
}

func (g granterSet) with(id string) granterSet {
	next := make(granterSet, len(g)+1)
	for k := range g {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

// checkAll resolves an action/resource pair against a set of policies and
// returns the authoritative resource set, or nil for no access.
func (e *Evaluator) checkAll(ctx context.Context, action string, resource Resource, policies []*Policy, userID string, visited granterSet) (Set, error) {
	// A Batch is a group of resources checked individually; every member
	// must resolve or the whole check fails.
	if batch, ok := resource.(Batch); ok {
		var result Set
		for _, member := range batch {
			r, err := e.checkAll(ctx, action, member, policies, userID, visited)
			if err != nil {
				return nil, err
			}
			if r == nil {
				return nil, nil
			}
			result = r
		}
		return result, nil
	}

	var allowed, denied []Resource

	for _, policy := range policies {
		if policy.Definition == nil {
			continue
		}
		for i := range policy.Definition.Statements {
			st := &policy.Definition.Statements[i]
			match, err := e.checkStatement(ctx, policy, st, action, resource, userID, visited)
			if err != nil {
				return nil, err
			}
			if match == nil {
				continue
			}
			if st.Effect == EffectAllow {
				allowed = append(allowed, match)
			} else {
				denied = append(denied, match)
			}
		}
	}

	// Class-level denies are absorbing: the denied class marker removes
	// itself and cancels any class-level allow for the same type before
	// anything is materialized into concrete instances.
	deniedTypes := make(map[string]struct{})
	for _, r := range denied {
		if class, ok := r.(Class); ok {
			deniedTypes[class.ResourceType()] = struct{}{}
		}
	}
	allowed = dropClassMatches(allowed, deniedTypes)
	denied = dropClassMatches(denied, deniedTypes)

	result := subtract(materialize(allowed), materialize(denied))
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// checkStatement evaluates one statement of one policy against a candidate
// resource. Returns the (possibly narrowed) matched resource, or nil for no
// match.
func (e *Evaluator) checkStatement(ctx context.Context, policy *Policy, st *Statement, action string, resource Resource, userID string, visited granterSet) (Resource, error) {
	if !st.MatchesAction(action) {
		return nil, nil
	}

	resource = st.ApplyResourceFilters(resource)
	if resource == nil {
		return nil, nil
	}

	if st.Condition != nil {
		resource = st.ApplyCondition(resource, userID)
		if resource == nil {
			return nil, nil
		}
	}

	// Verify the granter's own delegable policies permit this (possibly
	// narrower) resource. Implicit policies have no granter to verify, and
	// a granter already on the recursion path counts as verified so cyclic
	// grant graphs terminate.
	if !policy.IsImplicit() && !visited.has(policy.GranterID) {
		granterPolicies, err := e.source.DelegablePoliciesByUser(ctx, policy.GranterID)
		if err != nil {
			return nil, err
		}

		granted, err := e.checkAll(ctx, action, resource, granterPolicies, policy.GranterID, visited.with(policy.GranterID))
		if err != nil {
			return nil, err
		}
		if granted == nil {
			return nil, nil
		}

		// Delegation only narrows: the granter's verdict becomes the match.
		return granted, nil
	}

	return resource, nil
}

// dropClassMatches removes class-level matches whose type appears in types.
func dropClassMatches(matches []Resource, types map[string]struct{}) []Resource {
	if len(types) == 0 {
		return matches
	}
	out := matches[:0]
	for _, r := range matches {
		if class, ok := r.(Class); ok {
			if _, dropped := types[class.ResourceType()]; dropped {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// materialize expands class markers into their full universe, flattens sets,
// and de-duplicates by instance identity, preserving first-seen order.
func materialize(matches []Resource) Set {
	var flat Set
	for _, r := range matches {
		switch v := r.(type) {
		case Class:
			flat = append(flat, v.All()...)
		case Set:
			flat = append(flat, v...)
		case Instance:
			flat = append(flat, v)
		}
	}

	seen := make(map[string]struct{}, len(flat))
	out := flat[:0]
	for _, inst := range flat {
		key := instanceKey(inst)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, inst)
	}
	return out
}

// subtract returns a minus b over instance identities. Deny wins over allow
// for the same instance.
func subtract(a, b Set) Set {
	if len(b) == 0 {
		return a
	}
	removed := make(map[string]struct{}, len(b))
	for _, inst := range b {
		removed[instanceKey(inst)] = struct{}{}
	}

	out := make(Set, 0, len(a))
	for _, inst := range a {
		if _, gone := removed[instanceKey(inst)]; gone {
			continue
		}
		out = append(out, inst)
	}
	return out
}
