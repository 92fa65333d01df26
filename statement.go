package policykit

import "encoding/json"

// Effect is the verdict a statement contributes when it matches.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// ConditionIsOwner is the only condition key currently understood: it narrows
// the matched resource to the instances owned by the acting user.
const ConditionIsOwner = "is_owner"

// Condition maps condition keys to arbitrary values. Keys without a known
// resolution are rejected at validation time; the resolver ignores them.
type Condition map[string]any

// StringList is a list of strings that unmarshals from either a JSON string
// or a JSON array of strings, since policy definitions historically allow
// both forms for action and resource matchers.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Statement is the atomic policy rule: an effect, one or more action
// matchers, one or more resource matchers, and an optional condition.
type Statement struct {
	Effect    Effect     `json:"effect"`
	Actions   StringList `json:"action"`
	Resources StringList `json:"resource"`
	Condition Condition  `json:"condition,omitempty"`
}

// MatchesAction reports whether any action matcher equals the action or is
// the wildcard. Order independent.
func (st *Statement) MatchesAction(action string) bool {
	for _, matcher := range st.Actions {
		if matcher == ActionWildcard || matcher == action {
			return true
		}
	}
	return false
}

// ApplyResourceFilters applies the statement's resource matchers to a
// candidate resource in declaration order. The first wildcard short-circuits
// to the unfiltered resource; otherwise the first matcher the resource
// understands wins and later matchers are not tried. There is no union
// across matchers. Returns nil when no matcher applies.
func (st *Statement) ApplyResourceFilters(resource Resource) Resource {
	for _, matcher := range st.Resources {
		if matcher == ResourceWildcard {
			return resource
		}
		if filtered := resource.FilterByResource(matcher); filtered != nil {
			return filtered
		}
	}
	return nil
}

// ApplyCondition resolves the statement's condition against a matched
// resource. Only is_owner has a resolution; other keys leave the resource
// untouched. A nil filter result aborts the statement.
func (st *Statement) ApplyCondition(resource Resource, userID string) Resource {
	for key := range st.Condition {
		if key != ConditionIsOwner {
			continue
		}
		resource = resource.FilterByOwner(userID)
		if resource == nil {
			return nil
		}
	}
	return resource
}
