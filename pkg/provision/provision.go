// Package provision defines the narrow contract between the topology
// resolver and whatever actually creates cloud resources. The core
// only depends on this interface, never on how a collaborator
// provisions its resource.
package provision

import (
	"context"

	"github.com/botforge-io/botforge/pkg/graph"
)

// ModuleRequest carries everything a collaborator needs to evaluate
// one module: the concrete name, scope, location, tags, and the fully
// resolved input values.
type ModuleRequest struct {
	// Module is the logical module name (e.g. "document-database").
	Module string

	// Kind of resource to provision.
	Kind graph.Kind

	// Name is the concrete resource name.
	Name string

	// ResourceGroup is the scope the resource deploys into.
	ResourceGroup string

	// Location is the Azure region.
	Location string

	// Tags applied to the resource.
	Tags map[string]string

	// Inputs are the resolved input values, literals only.
	Inputs map[string]interface{}
}

// Outputs are the named values a module evaluation produces.
type Outputs map[string]interface{}

// Provisioner evaluates modules. Each call is a blocking, at-most-once
// operation per module per resolution pass; retry policy, if any,
// belongs to the implementation.
type Provisioner interface {
	// Evaluate provisions the module and returns at least the outputs
	// its dependents consume.
	Evaluate(ctx context.Context, req ModuleRequest) (Outputs, error)

	// Delete removes the module's resource. Deleting a resource that
	// does not exist is not an error.
	Delete(ctx context.Context, req ModuleRequest) error
}
