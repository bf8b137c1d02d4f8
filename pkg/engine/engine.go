package engine

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/botforge-io/botforge/pkg/errors"
	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/provision"
	"github.com/botforge-io/botforge/pkg/state"
	"github.com/botforge-io/botforge/pkg/state/backend"
	"github.com/botforge-io/botforge/pkg/state/types"
)

// Engine orchestrates the full deployment lifecycle: resolve
// parameters, build the graph, evaluate it, and persist state.
type Engine struct {
	provisioner provision.Provisioner
	state       state.Manager
	progress    ProgressFunc
}

// Result is what a deploy run returns.
type Result struct {
	Environment string
	OperationID string
	Graph       *graph.Graph
	Modules     ModuleOutputs
	Flat        FlatOutputs
	Duration    time.Duration
}

// New creates an engine.
func New(p provision.Provisioner, m state.Manager) *Engine {
	return &Engine{provisioner: p, state: m}
}

// WithProgress registers a per-module progress callback.
func (e *Engine) WithProgress(fn ProgressFunc) *Engine {
	e.progress = fn
	return e
}

// Resolve builds the graph for a parameter set without evaluating it.
func (e *Engine) Resolve(ps params.ParameterSet) (*params.Resolved, *graph.Graph, error) {
	resolved, err := params.Resolve(ps)
	if err != nil {
		return nil, nil, err
	}
	g, err := Build(resolved)
	if err != nil {
		return nil, nil, err
	}
	return resolved, g, nil
}

// Deploy resolves, evaluates, and persists a deployment. On module
// failure the partial state is saved with a failed status before the
// error is returned.
func (e *Engine) Deploy(ctx context.Context, ps params.ParameterSet) (*Result, error) {
	started := time.Now()

	resolved, g, err := e.Resolve(ps)
	if err != nil {
		return nil, err
	}

	lock, err := e.state.Lock(ctx, resolved.EnvironmentName, "deploy", whoami())
	if err != nil {
		return nil, lockError(err)
	}
	defer lock.Unlock(ctx)

	operationID := uuid.New().String()
	log.Info("deploying environment", "environment", resolved.EnvironmentName, "operation", operationID)

	record := newDeploymentState(resolved, operationID)
	record.Status = types.StatusProvisioning

	evaluator := NewEvaluator(e.provisioner).WithProgress(e.progress)
	outputs, evalErr := evaluator.Evaluate(ctx, g, resolved)

	flat := Aggregate(resolved, outputs)
	fillModuleStates(record, g)
	record.Outputs = flatAsMap(flat)
	record.UpdatedAt = time.Now()

	if evalErr != nil {
		record.Status = types.StatusFailed
		record.StatusReason = evalErr.Error()
		if saveErr := e.state.Save(ctx, record); saveErr != nil {
			log.Error("failed to save failed deployment state", "error", saveErr)
		}
		return nil, evalErr
	}

	record.Status = types.StatusReady
	if err := e.state.Save(ctx, record); err != nil {
		return nil, errors.BackendError(e.state.Backend().Type(), "save", err)
	}

	return &Result{
		Environment: resolved.EnvironmentName,
		OperationID: operationID,
		Graph:       g,
		Modules:     outputs,
		Flat:        flat,
		Duration:    time.Since(started),
	}, nil
}

// Outputs re-projects the flat outputs of a previously deployed
// environment from persisted state.
func (e *Engine) Outputs(ctx context.Context, environment string) (FlatOutputs, error) {
	record, err := e.loadState(ctx, environment)
	if err != nil {
		return FlatOutputs{}, err
	}

	resolved, err := params.Resolve(record.Parameters)
	if err != nil {
		return FlatOutputs{}, err
	}

	outputs := ModuleOutputs{}
	for id, module := range record.Modules {
		outputs[id] = module.Outputs
	}
	return Aggregate(resolved, outputs), nil
}

// Destroy deletes every evaluated module in reverse dependency order,
// then removes the persisted state.
func (e *Engine) Destroy(ctx context.Context, environment string) error {
	record, err := e.loadState(ctx, environment)
	if err != nil {
		return err
	}

	resolved, err := params.Resolve(record.Parameters)
	if err != nil {
		return err
	}
	g, err := Build(resolved)
	if err != nil {
		return err
	}

	lock, err := e.state.Lock(ctx, environment, "destroy", whoami())
	if err != nil {
		return lockError(err)
	}
	defer lock.Unlock(ctx)

	record.Status = types.StatusDestroying
	record.UpdatedAt = time.Now()
	if err := e.state.Save(ctx, record); err != nil {
		return errors.BackendError(e.state.Backend().Type(), "save", err)
	}

	sorted, err := g.ReverseTopologicalSort()
	if err != nil {
		return err
	}

	for _, node := range sorted {
		module, ok := record.Modules[node.ID]
		if !ok || module.Status != types.ModuleStatusCompleted {
			continue
		}

		log.Info("deleting module", "module", node.ID)
		err := e.provisioner.Delete(ctx, provision.ModuleRequest{
			Module:        node.ID,
			Kind:          node.Kind,
			Name:          node.ResourceName,
			ResourceGroup: node.ResourceGroup,
			Location:      resolved.Location,
			Tags:          resolved.Tags,
			Inputs:        module.Inputs,
		})
		if err != nil {
			return errors.ModuleEvaluationFailed(node.ID, err)
		}
	}

	if err := e.state.Delete(ctx, environment); err != nil {
		return errors.BackendError(e.state.Backend().Type(), "delete", err)
	}

	log.Info("environment destroyed", "environment", environment)
	return nil
}

// List returns the persisted deployments.
func (e *Engine) List(ctx context.Context) ([]types.DeploymentRef, error) {
	return e.state.List(ctx)
}

// State returns the raw persisted record for an environment.
func (e *Engine) State(ctx context.Context, environment string) (*types.DeploymentState, error) {
	return e.loadState(ctx, environment)
}

func (e *Engine) loadState(ctx context.Context, environment string) (*types.DeploymentState, error) {
	record, err := e.state.Get(ctx, environment)
	if err != nil {
		if err == backend.ErrNotFound {
			return nil, errors.NotFoundError("deployment", environment)
		}
		return nil, errors.BackendError(e.state.Backend().Type(), "read", err)
	}
	return record, nil
}

func newDeploymentState(r *params.Resolved, operationID string) *types.DeploymentState {
	now := time.Now()
	return &types.DeploymentState{
		Environment:  r.EnvironmentName,
		OperationID:  operationID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Status:       types.StatusPending,
		Parameters:   r.ParameterSet,
		UniqueSuffix: r.UniqueSuffix,
		Names:        r.Names.All(),
		Modules:      map[string]*types.ModuleState{},
	}
}

func fillModuleStates(record *types.DeploymentState, g *graph.Graph) {
	for id, node := range g.Nodes {
		record.Modules[id] = &types.ModuleState{
			Name:          id,
			Kind:          string(node.Kind),
			ResourceName:  node.ResourceName,
			ResourceGroup: node.ResourceGroup,
			Status:        moduleStatus(node.State),
			Inputs:        node.ResolvedInputs,
			Outputs:       node.Outputs,
		}
	}
}

func moduleStatus(s graph.State) types.ModuleStatus {
	switch s {
	case graph.StateCompleted:
		return types.ModuleStatusCompleted
	case graph.StateFailed:
		return types.ModuleStatusFailed
	case graph.StateSkipped:
		return types.ModuleStatusSkipped
	default:
		return types.ModuleStatusPending
	}
}

// flatAsMap flattens the output record into the persisted form. Env
// map keys are stable and human-readable in state files.
func flatAsMap(flat FlatOutputs) map[string]interface{} {
	return map[string]interface{}{
		"tenantId":            flat.TenantID,
		"resourceGroupId":     flat.ResourceGroupID,
		"resourceGroupName":   flat.ResourceGroupName,
		"aiServicesEndpoint":  flat.AIServicesEndpoint,
		"modelDeploymentName": flat.ModelDeploymentName,
		"cosmosEndpoint":      flat.CosmosEndpoint,
		"cosmosDatabaseName":  flat.CosmosDatabaseName,
		"cosmosContainerName": flat.CosmosContainerName,
		"bingEndpoint":        flat.BingEndpoint,
		"bingApiKey":          flat.BingAPIKey,
		"backendAppName":      flat.BackendAppName,
		"backendHostName":     flat.BackendHostName,
		"botName":             flat.BotName,
		"msiPrincipalId":      flat.MSIPrincipalID,
		"msiClientId":         flat.MSIClientID,
		"msiTenantId":         flat.MSITenantID,
		"authMode":            flat.AuthMode,
		"enableAuth":          flat.EnableAuth,
	}
}

func lockError(err error) error {
	if lockErr, ok := err.(*backend.LockError); ok {
		return errors.StateLocked(errors.LockInfo{
			ID:        lockErr.Info.ID,
			Path:      lockErr.Info.Path,
			Who:       lockErr.Info.Who,
			Operation: lockErr.Info.Operation,
			Created:   lockErr.Info.Created,
		})
	}
	return err
}

func whoami() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return hostname
}
