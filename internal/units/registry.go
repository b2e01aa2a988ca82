package units

import (
	"fmt"
	"strings"

	"modsuite/internal/services"
)

var (
	SmallMM = Profile{
		ID:   "small_mm",
		Name: "Small (1 mm – 1 m)",
		Unit: Millimeter,
		Min:  1,
		Max:  1000,
		Step: 0.1,
	}
	NormalM = Profile{
		ID:   "normal_m",
		Name: "Normal (1 – 10 m)",
		Unit: Meter,
		Min:  1,
		Max:  10,
		Step: 0.01,
	}
	LargeScene = Profile{
		ID:   "large_scene",
		Name: "Large/Scene (10 – 1000 m)",
		Unit: Meter,
		Min:  10,
		Max:  1000,
		Step: 0.1,
	}
)

// DefaultProfileID is used when configuration does not name a profile.
const DefaultProfileID = "normal_m"

var registered = []Profile{SmallMM, NormalM, LargeScene}

// All returns the registered profiles in display order.
func All() []Profile {
	out := make([]Profile, len(registered))
	copy(out, registered)
	return out
}

// Lookup returns the registered profile with the given identifier.
func Lookup(id string) (Profile, error) {
	trimmed := strings.TrimSpace(id)
	for _, p := range registered {
		if p.ID == trimmed {
			return p, nil
		}
	}
	return Profile{}, services.Wrap(services.ErrUnknownProfile, "units", "lookup",
		fmt.Sprintf("profile %q is not registered", id), nil)
}

// Known reports whether id names a registered profile.
func Known(id string) bool {
	_, err := Lookup(id)
	return err == nil
}

// Resolver carries the operator-selected default profile so callers never
// consult ambient state.
type Resolver struct {
	fallback Profile
}

// NewResolver builds a resolver whose default is defaultID. An empty id selects
// DefaultProfileID.
func NewResolver(defaultID string) (*Resolver, error) {
	if strings.TrimSpace(defaultID) == "" {
		defaultID = DefaultProfileID
	}
	p, err := Lookup(defaultID)
	if err != nil {
		return nil, err
	}
	return &Resolver{fallback: p}, nil
}

// Default returns the configured default profile.
func (r *Resolver) Default() Profile {
	if r == nil {
		return NormalM
	}
	return r.fallback
}

// Resolve returns the profile for id, falling back to the default when id is
// empty or unknown.
func (r *Resolver) Resolve(id string) Profile {
	if p, err := Lookup(id); err == nil {
		return p
	}
	return r.Default()
}
