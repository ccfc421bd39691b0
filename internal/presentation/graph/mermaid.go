package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	flow "github.com/aretw0/switchboard/pkg/graph"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromCheckpoint marks the nodes that produced messages and the resume position.
func OverlayFromCheckpoint(cp *domain.Checkpoint) *GraphOverlay {
	if cp == nil {
		return nil
	}
	o := &GraphOverlay{CurrentNode: cp.LastNode}
	for _, m := range cp.State.Messages {
		if m.Node != "" {
			o.VisitedNodes = append(o.VisitedNodes, m.Node)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a compiled graph.
// Shapes:
// - Entry and Terminal: ((Circle))
// - Nodes with a conditional edge: {Rhombus}
// - Default: [Rectangle]
// Conditional edges are dotted. Overlay styles are applied if provided.
func GenerateMermaid(g *flow.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	fmt.Fprintf(&sb, "    %s((\"start\"))\n", sanitizeMermaidID(domain.Entry))

	edges := g.Edges()
	conditional := make(map[string]bool, len(edges))
	for _, e := range edges {
		if _, ok := e.(flow.ConditionalEdge); ok {
			conditional[e.From()] = true
		}
	}

	for _, name := range g.Names() {
		opener, closer := "[", "]"
		if conditional[name] {
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(name), opener, escapeLabel(name), closer)
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", sanitizeMermaidID(domain.Terminal))

	for _, e := range edges {
		from := sanitizeMermaidID(e.From())
		_, isCond := e.(flow.ConditionalEdge)
		for _, to := range e.Targets() {
			arrow := "-->"
			if isCond {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visited[safeID] && safeID != "" {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
