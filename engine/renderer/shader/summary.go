package shader

import (
	"fmt"
	"strings"
)

const summaryRule = "__________________________________"

// Summary renders the merged variables of a program for diagnostics.
func Summary(p *Program) string {
	var sb strings.Builder
	vars := p.Variables()
	fmt.Fprintln(&sb, summaryRule)
	fmt.Fprintf(&sb, "Shader: %s\n", p.name)
	fmt.Fprintf(&sb, "Shader variable: %d\n", len(vars))
	for _, v := range vars {
		fmt.Fprintf(&sb, "\tName: %s\n", v.Name)
		fmt.Fprintf(&sb, "\tType: %s\n", v.Type)
		fmt.Fprintf(&sb, "\tBindPoint: %d\n", v.BindPoint)
		fmt.Fprintf(&sb, "\tBindCount: %d\n", v.BindCount)
		fmt.Fprintf(&sb, "\tSpace: %d\n", v.Space)
		fmt.Fprintf(&sb, "\tVisibility: %s\n", v.Visibility)
		fmt.Fprintf(&sb, "\tRoot Signature Slot: %d\n", v.RootSlot)
		fmt.Fprintln(&sb, "^^^^^")
	}
	if layout := p.InputLayout(); len(layout) > 0 {
		fmt.Fprintln(&sb, "Input layout:")
		for _, e := range layout {
			fmt.Fprintf(&sb, "\t%s %s +%d\n", e.SemanticName, e.Format, e.AlignedByteOffset)
		}
	}
	fmt.Fprintf(&sb, "Topology: %s\n", p.topology)
	fmt.Fprintln(&sb, summaryRule)
	return sb.String()
}
