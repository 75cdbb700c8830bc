package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/roguepath/pkg/domain"
)

// GraphOverlay contains a group's live position to highlight on the graph.
type GraphOverlay struct {
	Current   *domain.NodeID
	Available []domain.NodeID
}

// GenerateMermaid produces a Mermaid flowchart of a path graph, top to bottom by level.
// Shapes:
// - Root: ((Circle))
// - Terminal: {{Hexagon}}
// - Special: [[Subroutine]]
// - Default: [Rectangle]
// Completed nodes are always styled; the overlay adds current and available nodes.
func GenerateMermaid(g *domain.PathGraph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	root, _ := g.Root()
	var completed, unresolved []domain.NodeID

	g.Walk(func(n domain.Node) {
		opener, closer := "[", "]"
		switch {
		case n.ID == root:
			opener, closer = "((", "))"
		case n.IsTerminal():
			opener, closer = "{{", "}}"
		case n.Special:
			opener, closer = "[[", "]]"
		}

		room := n.RoomID
		if room == "" {
			room = "?"
			unresolved = append(unresolved, n.ID)
		}
		label := fmt.Sprintf("#%d L%d<br/>%s", n.ID, n.Level, sanitizeLabel(room))
		if n.Special {
			label += " ★"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", mermaidID(n.ID), opener, label, closer))

		if n.Completed {
			completed = append(completed, n.ID)
		}
		for _, child := range n.Children {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(n.ID), mermaidID(child)))
		}
	})

	if len(completed) == 0 && len(unresolved) == 0 && overlay == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Styles\n")
	// Black text keeps contrast on light fills in both themes.
	sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef unresolved fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
	writeClass(&sb, "completed", completed)
	writeClass(&sb, "unresolved", unresolved)

	if overlay != nil {
		sb.WriteString("    classDef available fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		writeClass(&sb, "available", overlay.Available)
		if overlay.Current != nil {
			writeClass(&sb, "current", []domain.NodeID{*overlay.Current})
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, class string, ids []domain.NodeID) {
	seen := make(map[domain.NodeID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", mermaidID(id), class))
	}
}

func mermaidID(id domain.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
