// Package types defines the persisted deployment state structures.
package types

import (
	"time"

	"github.com/botforge-io/botforge/pkg/params"
)

// DeploymentStatus is the lifecycle status of a deployment.
type DeploymentStatus string

const (
	StatusPending      DeploymentStatus = "pending"
	StatusProvisioning DeploymentStatus = "provisioning"
	StatusReady        DeploymentStatus = "ready"
	StatusFailed       DeploymentStatus = "failed"
	StatusDestroying   DeploymentStatus = "destroying"
)

// ModuleStatus is the evaluation status of one module.
type ModuleStatus string

const (
	ModuleStatusPending   ModuleStatus = "pending"
	ModuleStatusCompleted ModuleStatus = "completed"
	ModuleStatusFailed    ModuleStatus = "failed"
	ModuleStatusSkipped   ModuleStatus = "skipped"
)

// DeploymentState is the full persisted record of one environment's
// deployment: the parameters it was resolved from, the derived names,
// and every module's inputs and outputs.
type DeploymentState struct {
	// Metadata
	Environment string    `json:"environment"`
	OperationID string    `json:"operation_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Status
	Status       DeploymentStatus `json:"status"`
	StatusReason string           `json:"status_reason,omitempty"`

	// Parameters is the raw parameter set the deployment was resolved
	// from; re-resolving it reproduces the same topology.
	Parameters params.ParameterSet `json:"parameters"`

	// Derived values, stored so destroy and outputs never depend on
	// re-derivation.
	UniqueSuffix string            `json:"unique_suffix"`
	Names        map[string]string `json:"names"`

	// Modules maps module ID to its evaluation record.
	Modules map[string]*ModuleState `json:"modules,omitempty"`

	// Outputs is the flat deployment-level output record.
	Outputs map[string]interface{} `json:"outputs,omitempty"`
}

// ModuleState is one module's persisted evaluation record.
type ModuleState struct {
	Name          string                 `json:"name"`
	Kind          string                 `json:"kind"`
	ResourceName  string                 `json:"resource_name"`
	ResourceGroup string                 `json:"resource_group"`
	Status        ModuleStatus           `json:"status"`
	StatusReason  string                 `json:"status_reason,omitempty"`
	Inputs        map[string]interface{} `json:"inputs,omitempty"`
	Outputs       map[string]interface{} `json:"outputs,omitempty"`
}

// DeploymentRef is a lightweight listing entry.
type DeploymentRef struct {
	Environment string           `json:"environment"`
	Status      DeploymentStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
