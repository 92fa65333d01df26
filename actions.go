package policykit

import "sync"

// ActionWildcard matches every action in statement matchers.
const ActionWildcard = "*"

// ActionPrefix namespaces all built-in actions.
const ActionPrefix = "labx"

// Built-in actions covering the institution / site / device lifecycle.
const (
	ActionCreateInstitution = ActionPrefix + ":createInstitution"
	ActionReadInstitution   = ActionPrefix + ":readInstitution"
	ActionUpdateInstitution = ActionPrefix + ":updateInstitution"
	ActionDeleteInstitution = ActionPrefix + ":deleteInstitution"

	ActionCreateInstitutionSite = ActionPrefix + ":createInstitutionSite"
	ActionReadSite              = ActionPrefix + ":readSite"
	ActionUpdateSite            = ActionPrefix + ":updateSite"
	ActionDeleteSite            = ActionPrefix + ":deleteSite"

	ActionRegisterInstitutionDevice = ActionPrefix + ":registerInstitutionDevice"
	ActionReadDevice                = ActionPrefix + ":readDevice"
	ActionUpdateDevice              = ActionPrefix + ":updateDevice"
	ActionDeleteDevice              = ActionPrefix + ":deleteDevice"
	ActionAssignDeviceSite          = ActionPrefix + ":assignDeviceSite"
	ActionRegenerateDeviceKey       = ActionPrefix + ":regenerateDeviceKey"
)

var builtinActions = []string{
	ActionCreateInstitution, ActionReadInstitution, ActionUpdateInstitution, ActionDeleteInstitution,
	ActionCreateInstitutionSite, ActionReadSite, ActionUpdateSite, ActionDeleteSite,
	ActionRegisterInstitutionDevice, ActionReadDevice, ActionUpdateDevice, ActionDeleteDevice,
	ActionAssignDeviceSite, ActionRegenerateDeviceKey,
}

// ActionRegistry holds the closed set of known action identifiers.
// It is created at startup and should be treated as immutable after initialization.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]struct{}
	order   []string
}

// NewActionRegistry creates an empty action registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		actions: make(map[string]struct{}),
	}
}

// DefaultActions returns a registry preloaded with the built-in action set.
func DefaultActions() *ActionRegistry {
	r := NewActionRegistry()
	r.Register(builtinActions...)
	return r
}

// Register adds actions to the registry. The wildcard is never registered;
// it matches implicitly during statement evaluation.
func (r *ActionRegistry) Register(actions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, action := range actions {
		if action == ActionWildcard {
			continue
		}
		if _, exists := r.actions[action]; exists {
			continue
		}
		r.actions[action] = struct{}{}
		r.order = append(r.order, action)
	}
}

// Known checks if an action is part of the closed set. The wildcard is not a
// registered action; definition validation skips it explicitly.
func (r *ActionRegistry) Known(action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.actions[action]
	return exists
}

// Actions returns all registered actions in registration order.
func (r *ActionRegistry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
