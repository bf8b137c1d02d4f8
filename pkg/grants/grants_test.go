package grants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/params"
)

func TestForAuthMode_Identity(t *testing.T) {
	list := ForAuthMode(params.AuthModeIdentity, "caller-id", "User", "msi-id")

	require.Len(t, list, 2)
	assert.Equal(t, AccessGrant{PrincipalID: "caller-id", PrincipalType: "User"}, list[0])
	assert.Equal(t, AccessGrant{PrincipalID: "msi-id", PrincipalType: PrincipalTypeServicePrincipal}, list[1])
}

func TestForAuthMode_AccessKey(t *testing.T) {
	list := ForAuthMode(params.AuthModeAccessKey, "caller-id", "User", "msi-id")
	assert.Empty(t, list)
}

func TestForAuthMode_EmptyCallerSkipped(t *testing.T) {
	list := ForAuthMode(params.AuthModeIdentity, "", "User", "msi-id")

	require.Len(t, list, 1)
	assert.Equal(t, "msi-id", list[0].PrincipalID)
}

func TestBindings_Identity(t *testing.T) {
	msiRef := graph.Ref("managed-identity", "principalId")
	list := Bindings(params.AuthModeIdentity, "caller-id", "ServicePrincipal", msiRef)

	require.Len(t, list, 2)
	assert.Equal(t, "caller-id", list[0].PrincipalID.Value)
	assert.Equal(t, "ServicePrincipal", list[0].PrincipalType)
	assert.True(t, list[1].PrincipalID.IsRef())
	assert.Equal(t, "managed-identity", list[1].PrincipalID.Module)
}

func TestBindings_AccessKey(t *testing.T) {
	list := Bindings(params.AuthModeAccessKey, "caller-id", "User", graph.Ref("managed-identity", "principalId"))
	assert.Empty(t, list)
}
