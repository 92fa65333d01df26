package policykit

import (
	"strings"
	"sync"
)

// ResourceWildcard matches any resource of any type in statement matchers.
const ResourceWildcard = "*"

// Resource is the capability contract every protectable value implements.
// Both filters are purely functional: they never mutate the receiver and
// never fail. A nil return from FilterByResource means "matcher does not
// apply to this type", which is distinct from an applicable-but-empty Set.
type Resource interface {
	// FilterByResource returns the subset of the receiver matching the
	// matcher string, or nil when the matcher does not apply at all.
	FilterByResource(matcher string) Resource

	// FilterByOwner returns the subset of the receiver owned by the user,
	// or nil when nothing is owned by them.
	FilterByOwner(userID string) Resource
}

// Instance is a concrete, identifiable resource. The (type, id) pair is the
// identity used for de-duplication and allow/deny set arithmetic.
type Instance interface {
	Resource
	ResourceType() string
	ResourceID() string
}

// Class is the class-level marker meaning "all instances of a type". A Class
// flowing through the resolver is materialized into concrete instances via
// All() only at the final aggregation step.
type Class interface {
	Resource
	ResourceType() string
	All() Set
}

// Set is an ordered collection of concrete instances. It is the narrowing
// result the resolver hands back, and it satisfies Resource itself so that
// an already-narrowed verdict can be filtered further up the grant chain.
type Set []Instance

// FilterByResource applies the matcher to every member. It returns nil when
// the matcher's type applies to no member at all, and an (possibly empty)
// Set of the surviving members otherwise.
func (s Set) FilterByResource(matcher string) Resource {
	if matcher == ResourceWildcard {
		return s
	}
	m := ParseMatcher(matcher)
	applies := false
	out := make(Set, 0, len(s))
	for _, inst := range s {
		if inst.ResourceType() == m.Type {
			applies = true
		}
		if r := inst.FilterByResource(matcher); r != nil {
			out = appendResource(out, r)
		}
	}
	if !applies {
		return nil
	}
	return out
}

// FilterByOwner keeps the members owned by the user. Ownership always
// applies, so the result is never nil, only possibly empty.
func (s Set) FilterByOwner(userID string) Resource {
	out := make(Set, 0, len(s))
	for _, inst := range s {
		if r := inst.FilterByOwner(userID); r != nil {
			out = appendResource(out, r)
		}
	}
	return out
}

// Contains reports whether the set holds an instance with the same identity.
func (s Set) Contains(inst Instance) bool {
	key := instanceKey(inst)
	for _, member := range s {
		if instanceKey(member) == key {
			return true
		}
	}
	return false
}

// Batch is a heterogeneous list of resources supplied by the caller. The
// resolver treats it all-or-nothing: every member must individually resolve
// or the whole check fails. Batch is input-only and is never returned.
type Batch []Resource

// FilterByResource implements Resource so a Batch can be passed wherever a
// Resource is expected; the resolver unpacks it before any filtering, so
// these methods are only reached if a Batch leaks into a statement, in which
// case it does not apply.
func (b Batch) FilterByResource(string) Resource { return nil }

// FilterByOwner implements Resource. See FilterByResource.
func (b Batch) FilterByOwner(string) Resource { return nil }

func instanceKey(inst Instance) string {
	return inst.ResourceType() + ":" + inst.ResourceID()
}

// appendResource flattens an Instance or Set into dst.
func appendResource(dst Set, r Resource) Set {
	switch v := r.(type) {
	case Set:
		return append(dst, v...)
	case Instance:
		return append(dst, v)
	}
	return dst
}

// Matcher is the parsed form of a resource matcher string. The grammar is
//
//	<type>                  the whole class, e.g. "device"
//	<type>/<id>             a concrete instance, e.g. "device/dev-1"
//	<type>?<key>=<value>    a narrowed class, e.g. "device?site=site123"
//
// Adapters share this parsing through ParseMatcher instead of re-splitting
// the string themselves.
type Matcher struct {
	Type   string
	ID     string
	Params map[string]string
}

// ParseMatcher parses a resource matcher string. It never fails; unparseable
// trailing parts end up as params with empty values and simply match nothing.
func ParseMatcher(s string) Matcher {
	m := Matcher{Type: s}

	if i := strings.IndexByte(m.Type, '?'); i >= 0 {
		query := m.Type[i+1:]
		m.Type = m.Type[:i]
		m.Params = make(map[string]string)
		for _, pair := range strings.Split(query, "&") {
			if pair == "" {
				continue
			}
			key, value, _ := strings.Cut(pair, "=")
			m.Params[key] = value
		}
	}

	if i := strings.IndexByte(m.Type, '/'); i >= 0 {
		m.ID = m.Type[i+1:]
		m.Type = m.Type[:i]
	}

	return m
}

// Param returns the named query parameter, or empty string.
func (m Matcher) Param(key string) string {
	return m.Params[key]
}

// ResourceRegistry maps resource type tags to their Class implementations.
// It backs definition validation (is a matcher resolvable at all?) and the
// grant-time resolution of matchers into concrete resources.
// It is created at startup and should be treated as immutable after initialization.
type ResourceRegistry struct {
	mu      sync.RWMutex
	classes map[string]Class
	order   []string
}

// NewResourceRegistry creates an empty resource registry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{
		classes: make(map[string]Class),
	}
}

// Register adds resource classes, keyed by their ResourceType.
func (r *ResourceRegistry) Register(classes ...Class) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, class := range classes {
		name := class.ResourceType()
		if _, exists := r.classes[name]; !exists {
			r.order = append(r.order, name)
		}
		r.classes[name] = class
	}
}

// Class returns the registered class for a resource type, or nil.
func (r *ResourceRegistry) Class(resourceType string) Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.classes[resourceType]
}

// Classes returns all registered classes in registration order.
func (r *ResourceRegistry) Classes() []Class {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Class, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}

// Find resolves a matcher to concrete resources. The wildcard resolves to
// every registered class; otherwise the first class for which the matcher
// applies wins. A nil result means no registered capability understands the
// matcher.
func (r *ResourceRegistry) Find(matcher string) []Resource {
	if matcher == ResourceWildcard {
		classes := r.Classes()
		out := make([]Resource, 0, len(classes))
		for _, class := range classes {
			out = append(out, class)
		}
		return out
	}

	for _, class := range r.Classes() {
		if res := class.FilterByResource(matcher); res != nil {
			return []Resource{res}
		}
	}
	return nil
}

// Resolvable checks whether at least one registered capability understands
// the matcher. Used by definition validation.
func (r *ResourceRegistry) Resolvable(matcher string) bool {
	if matcher == ResourceWildcard {
		return true
	}
	return r.Find(matcher) != nil
}
