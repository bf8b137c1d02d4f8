// Package visual renders dependency graphs for human consumption.
package visual

import (
	"fmt"
	"sort"
	"strings"

	"github.com/botforge-io/botforge/pkg/graph"
)

// MermaidOptions controls how a graph is rendered to a Mermaid flowchart.
type MermaidOptions struct {
	// Direction is the flowchart direction: "TD" (top-down) or "LR"
	// (left-right). Defaults to "TD" if empty.
	Direction string

	// Title is an optional diagram title.
	Title string
}

// RenderMermaid generates a Mermaid flowchart from a dependency graph.
// The output can be embedded in Markdown or rendered by mermaid-cli.
func RenderMermaid(g *graph.Graph, opts MermaidOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	sorted, err := g.TopologicalSort()
	if err != nil {
		return "", fmt.Errorf("failed to sort graph: %w", err)
	}

	var b strings.Builder

	if opts.Title != "" {
		b.WriteString(fmt.Sprintf("---\ntitle: %s\n---\n", opts.Title))
	}

	b.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	for _, node := range sorted {
		label := node.ID
		if node.ResourceName != "" {
			label = fmt.Sprintf("%s<br/>%s", node.ID, node.ResourceName)
		}
		if !node.Condition {
			label += "<br/>(skipped)"
		}
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", mermaidID(node.ID), escapeLabel(label)))
	}

	b.WriteString("\n")

	for _, node := range sorted {
		deps := append([]string(nil), node.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(dep), mermaidID(node.ID)))
		}
	}

	return b.String(), nil
}

// mermaidID sanitizes a node ID for use as a Mermaid identifier.
func mermaidID(id string) string {
	return strings.NewReplacer("-", "_", "/", "_", ".", "_").Replace(id)
}

// escapeLabel escapes characters that would break a Mermaid label.
func escapeLabel(label string) string {
	return strings.ReplaceAll(label, `"`, "#quot;")
}
