package policykit

import (
	"context"
	"errors"
	"testing"
)

// Test fixtures modeling the laboratory domain: institutions own sites,
// sites host devices, and every record knows its owner. The capability
// implementations here are the in-memory analog of what a real application
// backs with its database models.

type testInstitution struct {
	id      string
	ownerID string
}

func (i *testInstitution) ResourceType() string { return "institution" }
func (i *testInstitution) ResourceID() string   { return i.id }

func (i *testInstitution) FilterByResource(matcher string) Resource {
	m := ParseMatcher(matcher)
	if m.Type != "institution" {
		return nil
	}
	if m.ID != "" && m.ID != i.id {
		return nil
	}
	return i
}

func (i *testInstitution) FilterByOwner(userID string) Resource {
	if i.ownerID == userID {
		return i
	}
	return nil
}

type testSite struct {
	id            string
	institutionID string
	ownerID       string
}

func (s *testSite) ResourceType() string { return "site" }
func (s *testSite) ResourceID() string   { return s.id }

func (s *testSite) FilterByResource(matcher string) Resource {
	m := ParseMatcher(matcher)
	if m.Type != "site" {
		return nil
	}
	if m.ID != "" && m.ID != s.id {
		return nil
	}
	if inst := m.Param("institution"); inst != "" && inst != s.institutionID {
		return nil
	}
	return s
}

func (s *testSite) FilterByOwner(userID string) Resource {
	if s.ownerID == userID {
		return s
	}
	return nil
}

type testDevice struct {
	uid           string
	institutionID string
	siteID        string
	ownerID       string
}

func (d *testDevice) ResourceType() string { return "device" }
func (d *testDevice) ResourceID() string   { return d.uid }

func (d *testDevice) FilterByResource(matcher string) Resource {
	m := ParseMatcher(matcher)
	if m.Type != "device" {
		return nil
	}
	if m.ID != "" && m.ID != d.uid {
		return nil
	}
	if site := m.Param("site"); site != "" && site != d.siteID {
		return nil
	}
	if inst := m.Param("institution"); inst != "" && inst != d.institutionID {
		return nil
	}
	return d
}

func (d *testDevice) FilterByOwner(userID string) Resource {
	if d.ownerID == userID {
		return d
	}
	return nil
}

// testClass is the class-level capability shared by all three fixture types.
// A bare type matcher keeps the class marker intact so class-level deny
// absorption stays observable; anything narrower filters the catalog.
type testClass struct {
	resourceType string
	members      func() Set
}

func (c *testClass) ResourceType() string { return c.resourceType }
func (c *testClass) All() Set             { return c.members() }

func (c *testClass) FilterByResource(matcher string) Resource {
	if matcher == ResourceWildcard {
		return c
	}
	m := ParseMatcher(matcher)
	if m.Type != c.resourceType {
		return nil
	}
	if m.ID == "" && len(m.Params) == 0 {
		return c
	}
	out := make(Set, 0)
	for _, inst := range c.members() {
		if r := inst.FilterByResource(matcher); r != nil {
			out = appendResource(out, r)
		}
	}
	return out
}

func (c *testClass) FilterByOwner(userID string) Resource {
	out := make(Set, 0)
	for _, inst := range c.members() {
		if r := inst.FilterByOwner(userID); r != nil {
			out = appendResource(out, r)
		}
	}
	return out
}

// testCatalog is the in-memory universe the class capabilities materialize
// from.
type testCatalog struct {
	institutions []*testInstitution
	sites        []*testSite
	devices      []*testDevice
}

func newTestCatalog() *testCatalog {
	return &testCatalog{
		institutions: []*testInstitution{
			{id: "inst-1", ownerID: "granter"},
			{id: "inst-2", ownerID: "other"},
		},
		sites: []*testSite{
			{id: "site123", institutionID: "inst-1", ownerID: "granter"},
			{id: "site456", institutionID: "inst-1", ownerID: "granter"},
			{id: "site789", institutionID: "inst-2", ownerID: "other"},
		},
		devices: []*testDevice{
			{uid: "dev-1", institutionID: "inst-1", siteID: "site123", ownerID: "granter"},
			{uid: "dev-2", institutionID: "inst-1", siteID: "site456", ownerID: "granter"},
			{uid: "dev-3", institutionID: "inst-2", siteID: "site789", ownerID: "other"},
		},
	}
}

func (c *testCatalog) institutionClass() *testClass {
	return &testClass{resourceType: "institution", members: func() Set {
		out := make(Set, 0, len(c.institutions))
		for _, inst := range c.institutions {
			out = append(out, inst)
		}
		return out
	}}
}

func (c *testCatalog) siteClass() *testClass {
	return &testClass{resourceType: "site", members: func() Set {
		out := make(Set, 0, len(c.sites))
		for _, s := range c.sites {
			out = append(out, s)
		}
		return out
	}}
}

func (c *testCatalog) deviceClass() *testClass {
	return &testClass{resourceType: "device", members: func() Set {
		out := make(Set, 0, len(c.devices))
		for _, d := range c.devices {
			out = append(out, d)
		}
		return out
	}}
}

func (c *testCatalog) device(uid string) *testDevice {
	for _, d := range c.devices {
		if d.uid == uid {
			return d
		}
	}
	return nil
}

func (c *testCatalog) site(id string) *testSite {
	for _, s := range c.sites {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (c *testCatalog) registry() *ResourceRegistry {
	r := NewResourceRegistry()
	r.Register(c.institutionClass(), c.siteClass(), c.deviceClass())
	return r
}

// memorySource is an in-memory PolicySource. It returns exactly the policies
// granted through it, with no implicit baseline, so tests control the full
// grant chain explicitly.
type memorySource struct {
	policies map[string][]*Policy
}

func newMemorySource() *memorySource {
	return &memorySource{policies: make(map[string][]*Policy)}
}

func (m *memorySource) grant(policies ...*Policy) {
	for _, p := range policies {
		m.policies[p.UserID] = append(m.policies[p.UserID], p)
	}
}

func (m *memorySource) PoliciesByUser(_ context.Context, userID string) ([]*Policy, error) {
	return m.policies[userID], nil
}

func (m *memorySource) DelegablePoliciesByUser(_ context.Context, userID string) ([]*Policy, error) {
	var out []*Policy
	for _, p := range m.policies[userID] {
		if p.Delegable {
			out = append(out, p)
		}
	}
	return out, nil
}

// failingSource returns an error from every lookup, for error propagation
// tests.
type failingSource struct{}

var errSourceDown = errors.New("policy source down")

func (failingSource) PoliciesByUser(context.Context, string) ([]*Policy, error) {
	return nil, errSourceDown
}

func (failingSource) DelegablePoliciesByUser(context.Context, string) ([]*Policy, error) {
	return nil, errSourceDown
}

func boolPtr(b bool) *bool { return &b }

func allow(actions []string, resources []string) Statement {
	return Statement{Effect: EffectAllow, Actions: actions, Resources: resources}
}

func deny(actions []string, resources []string) Statement {
	return Statement{Effect: EffectDeny, Actions: actions, Resources: resources}
}

func allowOwned(actions []string, resources []string) Statement {
	return Statement{
		Effect:    EffectAllow,
		Actions:   actions,
		Resources: resources,
		Condition: Condition{ConditionIsOwner: true},
	}
}

func testPolicy(name, userID, granterID string, delegable bool, statements ...Statement) *Policy {
	return NewPolicy(name, userID, granterID, &Definition{
		Statements: statements,
		Delegable:  boolPtr(delegable),
	})
}

func newTestEvaluator(source PolicySource, catalog *testCatalog) *Evaluator {
	return NewEvaluator(source, DefaultActions(), catalog.registry())
}

func assertCan(t *testing.T, e *Evaluator, action string, resource Resource, userID string) {
	t.Helper()
	if !e.Can(context.Background(), action, resource, userID) {
		t.Errorf("expected %s to be able to %s", userID, action)
	}
}

func assertCannot(t *testing.T, e *Evaluator, action string, resource Resource, userID string) {
	t.Helper()
	if e.Can(context.Background(), action, resource, userID) {
		t.Errorf("expected %s not to be able to %s", userID, action)
	}
}

func resourceIDs(s Set) []string {
	out := make([]string, 0, len(s))
	for _, inst := range s {
		out = append(out, inst.ResourceID())
	}
	return out
}
