package policykit

import (
	"encoding/json"
	"fmt"
)

// Definition is the parsed body of a policy: its statements and the
// delegable flag. Delegable is a pointer so that validation can tell a
// missing attribute apart from an explicit false.
type Definition struct {
	Statements []Statement `json:"statement"`
	Delegable  *bool       `json:"delegable"`
}

// ParseDefinition parses a raw JSON policy definition. Parsing is lax: only
// JSON-level malformation fails here, everything semantic is left to
// Validate so the author gets structured errors.
func ParseDefinition(raw []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, NewError(ErrInvalidDefinition, err.Error())
	}
	return &def, nil
}

// IsDelegable reports the delegable flag, treating a missing attribute as
// false. Validate rejects definitions without the attribute, so stored
// policies always carry it explicitly.
func (d *Definition) IsDelegable() bool {
	return d.Delegable != nil && *d.Delegable
}

// Validate checks a definition for well-formedness against the closed action
// set and the registered resource capabilities. All failures are definition
// errors surfaced at policy-creation time; the resolver assumes stored
// definitions passed this.
func (d *Definition) Validate(actions *ActionRegistry, resources *ResourceRegistry) error {
	if len(d.Statements) == 0 {
		return NewError(ErrInvalidDefinition, "is missing a statement")
	}

	for i := range d.Statements {
		st := &d.Statements[i]

		switch st.Effect {
		case EffectAllow, EffectDeny:
		case "":
			return NewError(ErrInvalidDefinition, "is missing effect in statement").WithStatement(i)
		default:
			return NewError(ErrInvalidDefinition, fmt.Sprintf("has an invalid effect: %q", st.Effect)).WithStatement(i)
		}

		if len(st.Actions) == 0 {
			return NewError(ErrInvalidDefinition, "is missing action in statement").WithStatement(i)
		}
		for _, action := range st.Actions {
			if action == ActionWildcard {
				continue
			}
			if !actions.Known(action) {
				return NewError(ErrUnknownAction, fmt.Sprintf("has an unknown action: %q", action)).
					WithStatement(i).
					WithAction(action)
			}
		}

		if len(st.Resources) == 0 {
			return NewError(ErrInvalidDefinition, "is missing resource in statement").WithStatement(i)
		}
		for _, matcher := range st.Resources {
			if !resources.Resolvable(matcher) {
				return NewError(ErrUnknownResource, fmt.Sprintf("has an unknown resource: %q", matcher)).
					WithStatement(i).
					WithResource(matcher)
			}
		}

		for key := range st.Condition {
			if key != ConditionIsOwner {
				return NewError(ErrInvalidDefinition, fmt.Sprintf("has an unknown condition: %q", key)).WithStatement(i)
			}
		}
	}

	if d.Delegable == nil {
		return NewError(ErrInvalidDefinition, "is missing delegable attribute")
	}

	return nil
}
