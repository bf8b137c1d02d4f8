package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/botforge-io/botforge/pkg/errors"
	"github.com/botforge-io/botforge/pkg/graph"
	"github.com/botforge-io/botforge/pkg/grants"
	"github.com/botforge-io/botforge/pkg/params"
	"github.com/botforge-io/botforge/pkg/provision"
)

// ModuleOutputs maps module ID to its evaluated output record.
type ModuleOutputs map[string]map[string]interface{}

// ProgressFunc is called as each module changes state.
type ProgressFunc func(node *graph.Node)

// Evaluator walks the graph in dependency order and evaluates each
// module exactly once through the provisioner.
type Evaluator struct {
	provisioner provision.Provisioner
	progress    ProgressFunc
}

// NewEvaluator creates an evaluator backed by the given provisioner.
func NewEvaluator(p provision.Provisioner) *Evaluator {
	return &Evaluator{provisioner: p}
}

// WithProgress registers a progress callback.
func (e *Evaluator) WithProgress(fn ProgressFunc) *Evaluator {
	e.progress = fn
	return e
}

// Evaluate runs the graph bottom-up. Evaluation is strictly
// sequential in deterministic topological order. On module failure
// the walk stops; the partial outputs gathered so far are returned
// alongside the error so callers can persist them.
func (e *Evaluator) Evaluate(ctx context.Context, g *graph.Graph, r *params.Resolved) (ModuleOutputs, error) {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "dependency graph is not a DAG", err)
	}

	outputs := ModuleOutputs{}
	for _, node := range sorted {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		if !node.Condition {
			e.skip(node)
			outputs[node.ID] = node.Outputs
			continue
		}

		node.State = graph.StateRunning
		e.report(node)
		log.Debug("evaluating module", "module", node.ID, "kind", node.Kind)

		inputs, err := e.resolveInputs(node, outputs)
		if err != nil {
			node.State = graph.StateFailed
			e.report(node)
			return outputs, err
		}
		node.ResolvedInputs = inputs

		result, err := e.provisioner.Evaluate(ctx, provision.ModuleRequest{
			Module:        node.ID,
			Kind:          node.Kind,
			Name:          node.ResourceName,
			ResourceGroup: node.ResourceGroup,
			Location:      r.Location,
			Tags:          r.Tags,
			Inputs:        inputs,
		})
		if err != nil {
			node.State = graph.StateFailed
			e.report(node)
			return outputs, errors.ModuleEvaluationFailed(node.ID, err)
		}

		for key, value := range result {
			node.SetOutput(key, value)
		}
		node.State = graph.StateCompleted
		e.report(node)
		outputs[node.ID] = node.Outputs
	}

	return outputs, nil
}

// skip marks a condition-false node evaluated with a fully-populated
// record of empty defaults, so dependents resolve against it without
// special-casing.
func (e *Evaluator) skip(node *graph.Node) {
	for _, name := range node.DeclaredOutputs {
		node.SetOutput(name, "")
	}
	node.State = graph.StateSkipped
	e.report(node)
	log.Debug("skipping module", "module", node.ID)
}

func (e *Evaluator) report(node *graph.Node) {
	if e.progress != nil {
		e.progress(node)
	}
}

// resolveInputs materializes every input binding of a node against the
// outputs produced so far.
func (e *Evaluator) resolveInputs(node *graph.Node, outputs ModuleOutputs) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(node.Inputs))
	for key, value := range node.Inputs {
		v, err := e.resolveValue(node.ID, value, outputs)
		if err != nil {
			return nil, err
		}
		resolved[key] = v
	}
	return resolved, nil
}

func (e *Evaluator) resolveValue(module string, value interface{}, outputs ModuleOutputs) (interface{}, error) {
	switch v := value.(type) {
	case graph.Binding:
		return e.resolveBinding(module, v, outputs)

	case []grants.Grant:
		resolved := make([]grants.AccessGrant, 0, len(v))
		for _, grant := range v {
			principal, err := e.resolveBinding(module, grant.PrincipalID, outputs)
			if err != nil {
				return nil, err
			}
			id, _ := principal.(string)
			if id == "" {
				continue
			}
			resolved = append(resolved, grants.AccessGrant{
				PrincipalID:   id,
				PrincipalType: grant.PrincipalType,
			})
		}
		return resolved, nil

	default:
		return value, nil
	}
}

func (e *Evaluator) resolveBinding(module string, b graph.Binding, outputs ModuleOutputs) (interface{}, error) {
	if b.Format != "" {
		args := make([]interface{}, len(b.Args))
		for i, arg := range b.Args {
			v, err := e.resolveBinding(module, arg, outputs)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return fmt.Sprintf(b.Format, args...), nil
	}

	if !b.IsRef() {
		return b.Value, nil
	}

	record, ok := outputs[b.Module]
	if !ok {
		return nil, errors.DependencyUnavailable(module, b.Output, b.Module, b.Output)
	}
	value, ok := record[b.Output]
	if !ok {
		return nil, errors.DependencyUnavailable(module, b.Output, b.Module, b.Output)
	}
	return value, nil
}
