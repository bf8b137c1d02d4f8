package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/botforge-io/botforge/pkg/graph"
)

// moduleInfo tracks one module's progress for display.
type moduleInfo struct {
	ID           string
	ResourceName string
	Kind         string
	State        graph.State
	Gated        bool
	Dependencies []string
	StartTime    time.Time
	EndTime      time.Time
}

// ProgressTable prints the evaluation plan up front and one line per
// module state change, then a final summary.
type ProgressTable struct {
	mu        sync.Mutex
	modules   map[string]*moduleInfo
	order     []string
	writer    io.Writer
	startTime time.Time
}

// NewProgressTable creates a progress table writing to w.
func NewProgressTable(w io.Writer) *ProgressTable {
	return &ProgressTable{
		modules:   make(map[string]*moduleInfo),
		order:     []string{},
		writer:    w,
		startTime: time.Now(),
	}
}

// AddGraph registers every node of the graph in topological order.
func (p *ProgressTable) AddGraph(g *graph.Graph) error {
	sorted, err := g.TopologicalSort()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, node := range sorted {
		p.order = append(p.order, node.ID)
		p.modules[node.ID] = &moduleInfo{
			ID:           node.ID,
			ResourceName: node.ResourceName,
			Kind:         string(node.Kind),
			State:        node.State,
			Gated:        !node.Condition,
			Dependencies: append([]string(nil), node.DependsOn...),
		}
	}
	return nil
}

// PrintPlan prints the evaluation plan.
func (p *ProgressTable) PrintPlan() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.writer)
	fmt.Fprintln(p.writer, "Deployment plan:")
	fmt.Fprintln(p.writer, strings.Repeat("─", 60))

	created := 0
	for _, id := range p.order {
		m := p.modules[id]
		if m.Gated {
			fmt.Fprintf(p.writer, "  ◌ %-18s (skipped by network mode)\n", m.ID)
			continue
		}
		created++
		deps := ""
		if len(m.Dependencies) > 0 {
			deps = fmt.Sprintf(" (after: %s)", strings.Join(m.Dependencies, ", "))
		}
		fmt.Fprintf(p.writer, "  + %-18s %s%s\n", m.ID, m.ResourceName, deps)
	}

	fmt.Fprintln(p.writer, strings.Repeat("─", 60))
	fmt.Fprintf(p.writer, "Total: %d modules to evaluate\n", created)
	fmt.Fprintln(p.writer)
}

// Update records a node's state change and prints a status line for
// terminal states.
func (p *ProgressTable) Update(node *graph.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.modules[node.ID]
	if !ok {
		return
	}
	m.State = node.State

	switch node.State {
	case graph.StateRunning:
		m.StartTime = time.Now()
		fmt.Fprintf(p.writer, "◐ %s evaluating...\n", node.ID)
	case graph.StateCompleted:
		m.EndTime = time.Now()
		duration := ""
		if !m.StartTime.IsZero() {
			duration = fmt.Sprintf(" (%s)", m.EndTime.Sub(m.StartTime).Round(time.Millisecond))
		}
		fmt.Fprintf(p.writer, "● %s completed%s\n", node.ID, duration)
	case graph.StateFailed:
		m.EndTime = time.Now()
		fmt.Fprintf(p.writer, "✗ %s failed\n", node.ID)
	case graph.StateSkipped:
		fmt.Fprintf(p.writer, "◌ %s skipped\n", node.ID)
	}
}

// PrintSummary prints the final evaluation summary.
func (p *ProgressTable) PrintSummary() {
	p.mu.Lock()
	defer p.mu.Unlock()

	var completed, failed, skipped int
	for _, m := range p.modules {
		switch m.State {
		case graph.StateCompleted:
			completed++
		case graph.StateFailed:
			failed++
		case graph.StateSkipped:
			skipped++
		}
	}

	elapsed := time.Since(p.startTime).Round(time.Millisecond)

	fmt.Fprintln(p.writer)
	if failed > 0 {
		fmt.Fprintf(p.writer, "Deployment failed after %s\n", elapsed)
		fmt.Fprintf(p.writer, "  ● %d completed, ✗ %d failed, ◌ %d skipped\n", completed, failed, skipped)
		return
	}
	fmt.Fprintf(p.writer, "Deployment completed in %s\n", elapsed)
	fmt.Fprintf(p.writer, "  ● %d modules evaluated, ◌ %d skipped\n", completed, skipped)
}
