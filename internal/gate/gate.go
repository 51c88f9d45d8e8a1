// Package gate holds the authorization checks. Each check is a pure
// function of (actor, resource); the registry is built once at start and
// never mutated afterwards.
package gate

import (
	"slices"

	"github.com/google/uuid"
	"github.com/savedfeast/api/internal/enum"
)

// Name identifies a registered check.
type Name string

const (
	AdminAccess    Name = "admin-access"
	ProviderAccess Name = "provider-access"
	CustomerAccess Name = "customer-access"
	OwnRestaurant  Name = "own-restaurant"
	OwnMeal        Name = "own-meal"
	OwnOrder       Name = "own-order"
)

// Actor is the authenticated caller with its role memberships.
type Actor struct {
	UserID uuid.UUID
	Roles  []string
}

func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// Resources understood by the ownership checks.
type (
	Restaurant struct{ OwnerID uuid.UUID }
	// Meal is identified by the owner of the restaurant that lists it.
	Meal  struct{ RestaurantOwnerID uuid.UUID }
	Order struct{ UserID uuid.UUID }
)

// Decision is the explicit result of a check.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision              { return Decision{Allowed: true} }
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Check evaluates one capability. resource may be nil for role-only checks.
type Check func(actor Actor, resource any) Decision

// Registry is an immutable lookup table of checks.
type Registry struct {
	checks map[Name]Check
}

// NewRegistry copies checks into a new registry.
func NewRegistry(checks map[Name]Check) *Registry {
	r := &Registry{checks: make(map[Name]Check, len(checks))}
	for name, c := range checks {
		r.checks[name] = c
	}
	return r
}

// Default returns the registry with every SavedFeast check.
func Default() *Registry {
	return NewRegistry(map[Name]Check{
		AdminAccess:    requireRole(enum.RoleAdmin),
		ProviderAccess: requireRole(enum.RoleProvider),
		CustomerAccess: requireRole(enum.RoleCustomer),
		OwnRestaurant:  ownRestaurant,
		OwnMeal:        ownMeal,
		OwnOrder:       ownOrder,
	})
}

// Decide evaluates name. Unknown names are denied.
func (r *Registry) Decide(name Name, actor Actor, resource any) Decision {
	check, ok := r.checks[name]
	if !ok {
		return Deny("undefined gate " + string(name))
	}
	return check(actor, resource)
}

func (r *Registry) Allows(name Name, actor Actor, resource any) bool {
	return r.Decide(name, actor, resource).Allowed
}

func requireRole(role string) Check {
	return func(actor Actor, _ any) Decision {
		if actor.HasRole(role) {
			return Allow()
		}
		return Deny("missing role " + role)
	}
}

func ownRestaurant(actor Actor, resource any) Decision {
	if !actor.HasRole(enum.RoleProvider) {
		return Deny("missing role provider")
	}
	res, ok := resource.(Restaurant)
	if !ok {
		return Deny("resource is not a restaurant")
	}
	if res.OwnerID != actor.UserID {
		return Deny("restaurant belongs to another provider")
	}
	return Allow()
}

func ownMeal(actor Actor, resource any) Decision {
	if !actor.HasRole(enum.RoleProvider) {
		return Deny("missing role provider")
	}
	res, ok := resource.(Meal)
	if !ok {
		return Deny("resource is not a meal")
	}
	if res.RestaurantOwnerID != actor.UserID {
		return Deny("meal belongs to another provider")
	}
	return Allow()
}

func ownOrder(actor Actor, resource any) Decision {
	res, ok := resource.(Order)
	if !ok {
		return Deny("resource is not an order")
	}
	if res.UserID != actor.UserID {
		return Deny("order belongs to another customer")
	}
	return Allow()
}
