// Package graph provides dependency graph construction and traversal
// for the fixed deployment topology.
package graph

// Kind identifies the type of resource a module provisions.
type Kind string

const (
	KindVirtualNetwork  Kind = "virtualNetwork"
	KindPrivateDNSZones Kind = "privateDnsZones"
	KindManagedIdentity Kind = "managedIdentity"
	KindAIServices      Kind = "aiServices"
	KindBingSearch      Kind = "bingSearch"
	KindCosmosAccount   Kind = "cosmosAccount"
	KindModelDeployment Kind = "modelDeployment"
	KindAppHost         Kind = "appHost"
	KindBotService      Kind = "botService"
)

// State tracks the evaluation state of a node.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
)

// Node represents a module in the dependency graph.
type Node struct {
	// ID is the module name, unique within the graph.
	ID string

	// Kind of resource this module provisions.
	Kind Kind

	// ResourceName is the concrete resource name from the name table.
	ResourceName string

	// ResourceGroup is the scope the module deploys into.
	ResourceGroup string

	// Condition gates evaluation. A false condition still yields a
	// fully-populated output record of empty defaults so dependents
	// never see a missing record.
	Condition bool

	// Inputs are the declared input bindings. Values are Binding,
	// nested binding containers, or plain literals.
	Inputs map[string]interface{}

	// ResolvedInputs are the concrete input values the module was
	// evaluated with, populated once every binding has resolved.
	ResolvedInputs map[string]interface{}

	// DeclaredOutputs lists every output name this module produces.
	// Used to populate the default record when the condition is false.
	DeclaredOutputs []string

	// Outputs produced by evaluation. Immutable once the node
	// completes.
	Outputs map[string]interface{}

	// Dependencies - IDs of nodes this node depends on
	DependsOn []string

	// Dependents - IDs of nodes that depend on this node
	DependedOnBy []string

	// State tracking
	State State
}

// NewNode creates a new graph node with an always-true condition.
func NewNode(id string, kind Kind, resourceName, resourceGroup string) *Node {
	return &Node{
		ID:            id,
		Kind:          kind,
		ResourceName:  resourceName,
		ResourceGroup: resourceGroup,
		Condition:     true,
		Inputs:        make(map[string]interface{}),
		Outputs:       make(map[string]interface{}),
		DependsOn:     []string{},
		DependedOnBy:  []string{},
		State:         StatePending,
	}
}

// AddDependency adds a dependency to this node.
func (n *Node) AddDependency(nodeID string) {
	for _, dep := range n.DependsOn {
		if dep == nodeID {
			return // Already exists
		}
	}
	n.DependsOn = append(n.DependsOn, nodeID)
}

// AddDependent adds a dependent to this node.
func (n *Node) AddDependent(nodeID string) {
	for _, dep := range n.DependedOnBy {
		if dep == nodeID {
			return // Already exists
		}
	}
	n.DependedOnBy = append(n.DependedOnBy, nodeID)
}

// SetInput sets an input binding.
func (n *Node) SetInput(key string, value interface{}) {
	n.Inputs[key] = value
}

// SetOutput sets an output value.
func (n *Node) SetOutput(key string, value interface{}) {
	n.Outputs[key] = value
}

// Evaluated reports whether the node has finished evaluation, either
// by running or by being skipped with default outputs.
func (n *Node) Evaluated() bool {
	return n.State == StateCompleted || n.State == StateSkipped
}
