// Package grants computes the access-grant list threaded into every
// data-plane module that supports identity-based auth.
package grants

import (
	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/params"
)

// PrincipalTypeServicePrincipal is the principal type of the managed
// identity's grant entry.
const PrincipalTypeServicePrincipal = "ServicePrincipal"

// AccessGrant is a resolved (principal id, principal type) pair.
type AccessGrant struct {
	PrincipalID   string `json:"principalId"`
	PrincipalType string `json:"principalType"`
}

// Grant is an access grant whose principal id may still be an upstream
// module reference (the managed identity's principal id is only known
// after that module evaluates).
type Grant struct {
	PrincipalID   graph.Binding
	PrincipalType string
}

// ForAuthMode returns the resolved access-grant list: the invoking
// principal followed by the managed identity when identity-based auth
// is active, empty otherwise. An empty caller id means "skip this
// grant".
func ForAuthMode(mode params.AuthMode, callerID, callerType, msiPrincipalID string) []AccessGrant {
	if mode != params.AuthModeIdentity {
		return []AccessGrant{}
	}

	grants := make([]AccessGrant, 0, 2)
	if callerID != "" {
		grants = append(grants, AccessGrant{PrincipalID: callerID, PrincipalType: callerType})
	}
	if msiPrincipalID != "" {
		grants = append(grants, AccessGrant{PrincipalID: msiPrincipalID, PrincipalType: PrincipalTypeServicePrincipal})
	}
	return grants
}

// Bindings returns the same list in unresolved form, with the managed
// identity's principal id as a module-output reference for the graph
// evaluator to resolve.
func Bindings(mode params.AuthMode, callerID, callerType string, msiPrincipal graph.Binding) []Grant {
	if mode != params.AuthModeIdentity {
		return []Grant{}
	}

	grants := make([]Grant, 0, 2)
	if callerID != "" {
		grants = append(grants, Grant{PrincipalID: graph.Lit(callerID), PrincipalType: callerType})
	}
	grants = append(grants, Grant{PrincipalID: msiPrincipal, PrincipalType: PrincipalTypeServicePrincipal})
	return grants
}
