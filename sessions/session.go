// Package sessions exposes per-tenant session state to the rest of the client.
//
// A Provider is built from whatever the credential store holds, so a restarted client is
// authenticated immediately without a flash of the anonymous state. After Mount, a short
// hydration delay elapses before Hydrated reports true; until then the authenticated flag is
// provisional and guards must not redirect on it.
package sessions

import (
	"github.com/jrsteele09/recharge-dashboard/credentials"
	"github.com/jrsteele09/recharge-dashboard/tenants"
)

// Phase is the provider's position in its state machine.
type Phase int

const (
	Unhydrated Phase = iota
	HydratedAuthenticated
	HydratedAnonymous
)

func (p Phase) String() string {
	switch p {
	case Unhydrated:
		return "unhydrated"
	case HydratedAuthenticated:
		return "hydrated-authenticated"
	case HydratedAnonymous:
		return "hydrated-anonymous"
	default:
		return "unknown"
	}
}

// State is a snapshot of one tenant's session.
type State struct {
	Tenant      tenants.Tenant
	Credentials credentials.Credentials
	Hydrated    bool
}

// Authenticated is derived from the credential pair, never stored on its own.
func (s State) Authenticated() bool {
	return s.Credentials.Authenticated()
}

// Profile returns the cached display data, if any.
func (s State) Profile() credentials.Profile {
	return s.Credentials.Profile
}

func (s State) Phase() Phase {
	switch {
	case !s.Hydrated:
		return Unhydrated
	case s.Authenticated():
		return HydratedAuthenticated
	default:
		return HydratedAnonymous
	}
}
