package policykit

import (
	"embed"
	"fmt"
	"sync"
)

// Predefined policy names.
const (
	PredefinedSuperadmin = "superadmin"
	PredefinedImplicit   = "implicit"
)

//go:embed policies/superadmin.json policies/implicit.json
var predefinedFS embed.FS

// Policy is a named grant of rights from a granter to a user. Its
// authorization semantics are immutable after creation: user, granter and
// definition are never reassigned, only the whole policy is revoked.
type Policy struct {
	ID         string
	Name       string
	UserID     string
	GranterID  string // empty for predefined (implicit / superadmin) policies
	Definition *Definition
	Delegable  bool
}

// NewPolicy builds an in-memory policy. Delegable mirrors the definition's
// own delegable attribute, never a caller-supplied value.
func NewPolicy(name, userID, granterID string, def *Definition) *Policy {
	return &Policy{
		Name:       name,
		UserID:     userID,
		GranterID:  granterID,
		Definition: def,
		Delegable:  def != nil && def.IsDelegable(),
	}
}

// IsImplicit reports whether this policy has no granter. Granter-less
// policies represent inherent rights and are exempt from the delegation
// chain verification.
func (p *Policy) IsImplicit() bool {
	return p.GranterID == ""
}

// IsSelfGranted reports whether user and granter are the same identity.
func (p *Policy) IsSelfGranted() bool {
	return p.UserID != "" && p.UserID == p.GranterID
}

type predefined struct {
	raw []byte
	def *Definition
}

var (
	predefinedOnce sync.Once
	predefinedDefs map[string]predefined
)

// loadPredefined parses the embedded definition files once, at first use.
// The definitions are process-wide read-only state; a malformed embedded
// file is a build defect and panics.
func loadPredefined() {
	predefinedOnce.Do(func() {
		predefinedDefs = make(map[string]predefined)
		for _, name := range []string{PredefinedSuperadmin, PredefinedImplicit} {
			raw, err := predefinedFS.ReadFile("policies/" + name + ".json")
			if err != nil {
				panic(fmt.Sprintf("policykit: embedded policy %q: %v", name, err))
			}
			def, err := ParseDefinition(raw)
			if err != nil {
				panic(fmt.Sprintf("policykit: embedded policy %q: %v", name, err))
			}
			predefinedDefs[name] = predefined{raw: raw, def: def}
		}
	})
}

// PredefinedPolicy returns a predefined policy bound to a user. The returned
// policy has the same shape as a regular one and flows through the identical
// resolver; only the missing granter exempts it from delegation checks.
func PredefinedPolicy(name, userID string) (*Policy, error) {
	loadPredefined()

	p, ok := predefinedDefs[name]
	if !ok {
		return nil, NewError(ErrUnknownPredefined, name)
	}
	policy := NewPolicy(name, userID, "", p.def)
	return policy, nil
}

// PredefinedDefinition returns the raw JSON of a predefined policy
// definition, for persisting a predefined grant.
func PredefinedDefinition(name string) ([]byte, error) {
	loadPredefined()

	p, ok := predefinedDefs[name]
	if !ok {
		return nil, NewError(ErrUnknownPredefined, name)
	}
	return p.raw, nil
}

// Superadmin returns the predefined policy granting every action on every
// resource, bound to a user.
func Superadmin(userID string) *Policy {
	p, err := PredefinedPolicy(PredefinedSuperadmin, userID)
	if err != nil {
		panic(err)
	}
	return p
}

// Implicit returns the predefined baseline policy every authenticated user
// holds, bound to a user.
func Implicit(userID string) *Policy {
	p, err := PredefinedPolicy(PredefinedImplicit, userID)
	if err != nil {
		panic(err)
	}
	return p
}
