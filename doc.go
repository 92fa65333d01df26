// Package policykit provides a delegated, conditional allow/deny permission
// resolution engine for multi-tenant platforms.
//
// PolicyKit decides whether a user may perform an action on a resource and,
// when the answer is yes, returns the concrete subset of that resource the
// user may operate on. Rights flow through policies: a granter gives a user a
// set of allow/deny statements, and the engine recursively verifies that every
// granted right is also held by the granter, up the whole delegation chain,
// with cycle-safe recursion over the grant graph.
//
// # Core Concepts
//
// Action: a namespaced string identifier from a closed registry, for example
// "labx:readDevice". The wildcard "*" matches every action.
//
// Resource: anything implementing the Resource capability contract. A resource
// can be a concrete Instance, a Class marker meaning "all instances of a
// type", a Set of instances, or a heterogeneous Batch.
//
// Statement: the atomic policy rule. An effect (allow or deny), one or more
// action matchers, one or more resource matchers, and an optional condition
// (currently only "is_owner").
//
// Policy: an ordered list of statements a granter gives to a user, with a
// delegable flag. Two predefined granter-less policies exist: the implicit
// policy (baseline rights of every user) and superadmin (everything).
//
// Delegation: a policy can never hand out more than its granter independently
// holds. The resolver intersects each matched statement with the verdict of
// the granter's own delegable policies, recursively, so delegated authority
// only ever narrows.
//
// # Basic Usage
//
//	// 1. Registries (at application startup)
//	actions := policykit.DefaultActions()
//
//	resources := policykit.NewResourceRegistry()
//	resources.Register(deviceClass, siteClass, institutionClass)
//
//	// 2. Create the store and run migrations
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := policykit.NewStore(db, actions, resources)
//	db.Migrate(ctx, policykit.NewMigrationService(store).Migrations())
//
//	// 3. Grant policies
//	store.GrantPredefined(ctx, adminID, "superadmin")
//	store.Grant(ctx, policykit.PolicyGrant{
//	    Name:      "device readers",
//	    UserID:    techID,
//	    GranterID: adminID,
//	    Definition: []byte(`{
//	        "statement": [
//	            {"effect": "allow", "action": "labx:readDevice", "resource": "device"}
//	        ],
//	        "delegable": true
//	    }`),
//	})
//
//	// 4. Check permissions
//	eval := store.Evaluator()
//	if eval.Can(ctx, policykit.ActionReadDevice, someDevice, techID) {
//	    // allowed
//	}
//
//	// Authorize narrows: which devices may techID read?
//	devices, _ := eval.Authorize(ctx, policykit.ActionReadDevice, deviceClass, techID)
//
// # Resource Capability
//
// Every protectable type implements two purely functional filters:
//
//   - FilterByResource(matcher) returns the subset matching a matcher string,
//     or nil when the matcher does not apply to the type at all.
//   - FilterByOwner(userID) returns the subset owned by the user.
//
// Class implementations additionally expose All(), the unrestricted universe
// of the type, used to materialize class-level verdicts into concrete sets.
// This contract is the only way the engine touches domain data, and the sole
// extension point for protecting new resource types.
//
// # Resolution Semantics
//
//   - A statement matches when the action matches, a resource matcher applies
//     (first match wins, "*" short-circuits, no union across matchers) and the
//     condition, if any, leaves a non-nil resource.
//   - Matches accumulate into an allowed set and a denied set. Class-level
//     denies absorb class-level allows; everything is then materialized into
//     concrete instances and the result is allowed minus denied, so a deny
//     always wins over an allow for the same instance.
//   - Batches are all-or-nothing: if any member of a Batch fails to resolve,
//     the whole check fails.
//   - Cycles in the grant graph terminate through a visited-granter set that
//     is copied per recursion branch, never shared between siblings.
//
// Resolution is a pure computation over the supplied policies; authorization
// rejection is a normal outcome (false / nil), never an error.
//
// # Middleware Usage
//
//	mw := policykit.NewMiddleware(store.Evaluator())
//
//	router.Handle("/devices/{deviceID}", mw.RequireAction(
//	    policykit.ActionReadDevice,
//	    policykit.ResourceFromParam(resources, "device", "deviceID"),
//	)(deviceHandler))
//
// Handlers can read the resolved subset back with AuthorizedFromContext.
//
// # Audit Log
//
// Every grant and revoke is recorded with the actor, the target user, the
// granter, a snapshot of the definition, and request metadata (IP, user
// agent, request ID) taken from the context.
package policykit
