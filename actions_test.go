package policykit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestActionRegistryDefaults tests the built-in action set
func TestActionRegistryDefaults(t *testing.T) {
	registry := DefaultActions()

	assert.True(t, registry.Known(ActionReadDevice))
	assert.True(t, registry.Known(ActionCreateInstitution))
	assert.True(t, registry.Known(ActionRegenerateDeviceKey))
	assert.Len(t, registry.Actions(), 14)

	// The wildcard is matched during evaluation, never registered
	assert.False(t, registry.Known(ActionWildcard))
}

// TestActionRegistryRegister tests registering custom actions
func TestActionRegistryRegister(t *testing.T) {
	registry := NewActionRegistry()

	assert.False(t, registry.Known("labx:exportReadings"))

	registry.Register("labx:exportReadings", "labx:importReadings")
	assert.True(t, registry.Known("labx:exportReadings"))
	assert.True(t, registry.Known("labx:importReadings"))
	assert.Equal(t, []string{"labx:exportReadings", "labx:importReadings"}, registry.Actions())

	// Duplicate registration is a no-op
	registry.Register("labx:exportReadings")
	assert.Len(t, registry.Actions(), 2)

	// The wildcard is silently skipped
	registry.Register(ActionWildcard)
	assert.False(t, registry.Known(ActionWildcard))
	assert.Len(t, registry.Actions(), 2)
}

// TestActionRegistryOrder tests that Actions preserves registration order
func TestActionRegistryOrder(t *testing.T) {
	registry := DefaultActions()

	actions := registry.Actions()
	assert.Equal(t, ActionCreateInstitution, actions[0])
	assert.Equal(t, ActionRegenerateDeviceKey, actions[len(actions)-1])
}

// TestActionPrefix tests that built-in actions carry the namespace prefix
func TestActionPrefix(t *testing.T) {
	for _, action := range DefaultActions().Actions() {
		assert.Equal(t, ActionPrefix+":", action[:len(ActionPrefix)+1])
	}
}
