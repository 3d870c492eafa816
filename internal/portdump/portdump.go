// Package portdump renders the port-name table of a handshake circuit for
// diagnostics and waveform labeling. The output is a pure function of the
// circuit's shape, so it is stable across runs and suitable for golden
// comparison.
package portdump

import (
	"fmt"
	"strings"

	"github.com/silica-hls/silica/internal/handshake"
)

// Render returns the circuit's port-name table: the boundary signature
// followed by one block per operation, each listing its input and output
// port names in port order.
func Render(fn *handshake.FuncOp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "circuit %s\n", fn.Name)
	boundary := handshake.NewPortNamer(fn)
	writePorts(&b, "in: ", boundary.Inputs)
	writePorts(&b, "out:", boundary.Outputs)

	for _, op := range fn.Ops {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s\n", header(op))
		pn := handshake.NewPortNamer(op)
		writePorts(&b, "in: ", pn.Inputs)
		writePorts(&b, "out:", pn.Outputs)
	}
	return b.String()
}

func header(op handshake.Operation) string {
	switch memOp := op.(type) {
	case *handshake.MemoryControllerOp:
		return fmt.Sprintf("%s @%s", op.OpName(), memOp.MemName)
	case *handshake.LSQOp:
		return fmt.Sprintf("%s @%s", op.OpName(), memOp.MemName)
	default:
		return op.OpName()
	}
}

func writePorts(b *strings.Builder, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "  %s %s\n", label, strings.Join(names, ", "))
}
