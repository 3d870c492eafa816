package handshake

import (
	"fmt"
	"strconv"
)

// PortNamer holds the port names of one operation, one per operand in
// Inputs and one per result in Outputs, in port order. Names are a pure
// function of the operation's shape; calling the namer twice on an
// unmodified operation yields identical sequences.
type PortNamer struct {
	Inputs  []string
	Outputs []string
}

// NewPortNamer computes the port names of op. Operations with the NamedIO
// capability supply their own names; the circuit boundary copies its
// declared signature; everything else gets the positional default table.
func NewPortNamer(op Operation) *PortNamer {
	if op == nil {
		panic("handshake: cannot generate port names for nil operation")
	}
	pn := &PortNamer{}
	if named, ok := op.(NamedIO); ok {
		pn.infer(op, named.OperandName, named.ResultName)
	} else if f, ok := op.(*FuncOp); ok {
		pn.inferFromFunc(f)
	} else {
		pn.inferDefault(op)
	}
	return pn
}

func (pn *PortNamer) infer(op Operation, inF, outF func(int) string) {
	for idx := 0; idx < op.NumOperands(); idx++ {
		pn.Inputs = append(pn.Inputs, inF(idx))
	}
	for idx := 0; idx < op.NumResults(); idx++ {
		pn.Outputs = append(pn.Outputs, outF(idx))
	}

	// The terminator forwards the circuit's live values to the circuit
	// boundary, so it needs one extra output name per declared result.
	if end, ok := op.(*EndOp); ok {
		numResults := len(end.enclosingFunc().ResNames)
		for idx := 0; idx < numResults; idx++ {
			pn.Outputs = append(pn.Outputs, defaultResultName(idx))
		}
	}
}

func (pn *PortNamer) inferDefault(op Operation) {
	switch op.(type) {
	case *ArithOp:
		pn.infer(op,
			func(idx int) string {
				if idx == 0 {
					return "lhs"
				}
				return "rhs"
			},
			func(int) string { return "result" })
	case *UnaryOp:
		pn.infer(op,
			func(int) string { return "ins" },
			func(int) string { return "outs" })
	default:
		pn.infer(op, defaultOperandName, defaultResultName)
	}
}

func (pn *PortNamer) inferFromFunc(f *FuncOp) {
	pn.Inputs = append(pn.Inputs, f.ArgNames...)
	pn.Outputs = append(pn.Outputs, f.ResNames...)
}

// Base signal names common to both memory interfaces.
const (
	sigMemRef   = "memref"
	sigMemStart = "memStart"
	sigMemEnd   = "memEnd"
	sigCtrlEnd  = "ctrlEnd"
	sigCtrl     = "ctrl"
	sigLdAddr   = "ldAddr"
	sigLdData   = "ldData"
	sigStAddr   = "stAddr"
	sigStData   = "stData"
)

func arrayElemName(name string, idx int) string {
	return name + "_" + strconv.Itoa(idx)
}

// controlOperandName names the reserved global control operands of a master
// memory interface: memory reference at 0, access-window start at 1, end of
// control at the last index. Non-master interfaces reserve none of them.
func controlOperandName(memOp MemoryInterface, idx int) string {
	if !memOp.IsMasterInterface() {
		return ""
	}
	switch idx {
	case 0:
		return sigMemRef
	case 1:
		return sigMemStart
	default:
		if idx == memOp.NumOperands()-1 {
			return sigCtrlEnd
		}
		return ""
	}
}

// controlResultName names the reserved end-of-memory result of a master
// memory interface.
func controlResultName(memOp MemoryInterface, idx int) string {
	if memOp.IsMasterInterface() && idx == memOp.NumResults()-1 {
		return sigMemEnd
	}
	return ""
}

// memOperandName resolves idx against the interface's own block groups,
// numbering control, load and store ports contiguously across groups.
// Returns "" when no group explains the index.
func memOperandName(ports FuncPorts, idx int) string {
	ctrlIdx, loadIdx, storeIdx := 0, 0, 0
	for _, group := range ports.Groups {
		if group.HasControl() {
			if idx == group.Ctrl.CtrlInputIndex {
				return arrayElemName(sigCtrl, ctrlIdx)
			}
			ctrlIdx++
		}
		for _, access := range group.AccessPorts {
			switch port := access.(type) {
			case LoadPort:
				if port.AddrInputIndex == idx {
					return arrayElemName(sigLdAddr, loadIdx)
				}
				loadIdx++
			case StorePort:
				if port.AddrInputIndex == idx {
					return arrayElemName(sigStAddr, storeIdx)
				}
				if port.DataInputIndex == idx {
					return arrayElemName(sigStData, storeIdx)
				}
				storeIdx++
			}
		}
	}
	return ""
}

// memResultName resolves idx against the interface's own load data outputs.
// Returns "" when no group explains the index.
func memResultName(ports FuncPorts, idx int) string {
	loadIdx := 0
	for _, group := range ports.Groups {
		for _, access := range group.AccessPorts {
			if port, ok := access.(LoadPort); ok {
				if port.DataOutputIndex == idx {
					return arrayElemName(sigLdData, loadIdx)
				}
				loadIdx++
			}
		}
	}
	return ""
}

// OperandName resolves, in priority order: global control slots, the
// controller's own block groups, then the slots forwarded by a companion
// LSQ. Forwarded accesses continue the controller's own load/store
// numbering, so they read as a contiguous extension of the native accesses.
func (op *MemoryControllerOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")

	if name := controlOperandName(op, idx); name != "" {
		return name
	}
	if name := memOperandName(op.ports.FuncPorts, idx); name != "" {
		return name
	}

	if !op.ports.ConnectsToLSQ() {
		panic(fmt.Sprintf("handshake: mem_controller operand %d not explained by any memory port", idx))
	}
	lsqPort := op.ports.LSQPort
	switch idx {
	case lsqPort.LoadAddrInputIndex:
		return arrayElemName(sigLdAddr, op.ports.NumLoadPorts())
	case lsqPort.StoreAddrInputIndex:
		return arrayElemName(sigStAddr, op.ports.NumStorePorts())
	case lsqPort.StoreDataInputIndex:
		return arrayElemName(sigStData, op.ports.NumStorePorts())
	}
	panic(fmt.Sprintf("handshake: mem_controller operand %d not explained by any memory or lsq port", idx))
}

func (op *MemoryControllerOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")

	if name := controlResultName(op, idx); name != "" {
		return name
	}
	if name := memResultName(op.ports.FuncPorts, idx); name != "" {
		return name
	}

	if !op.ports.ConnectsToLSQ() || op.ports.LSQPort.LoadDataOutputIndex != idx {
		panic(fmt.Sprintf("handshake: mem_controller result %d not explained by any memory or lsq port", idx))
	}
	return arrayElemName(sigLdData, op.ports.NumLoadPorts())
}

// OperandName resolves, in priority order: global control slots (only when
// the queue is the master interface), the queue's own block groups, then the
// single load-data slot coming back from a companion controller.
func (op *LSQOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")

	if name := controlOperandName(op, idx); name != "" {
		return name
	}
	if name := memOperandName(op.ports.FuncPorts, idx); name != "" {
		return name
	}

	if !op.ports.ConnectsToMC() || op.ports.MCPort.LoadDataInputIndex != idx {
		panic(fmt.Sprintf("handshake: lsq operand %d not explained by any memory or mc port", idx))
	}
	return "ldDataFromMC"
}

func (op *LSQOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")

	if name := controlResultName(op, idx); name != "" {
		return name
	}
	if name := memResultName(op.ports.FuncPorts, idx); name != "" {
		return name
	}

	if !op.ports.ConnectsToMC() {
		panic(fmt.Sprintf("handshake: lsq result %d not explained by any memory port", idx))
	}
	mcPort := op.ports.MCPort
	switch idx {
	case mcPort.LoadAddrOutputIndex:
		return "ldAddrToMC"
	case mcPort.StoreAddrOutputIndex:
		return "stAddrToMC"
	case mcPort.StoreDataOutputIndex:
		return "stDataToMC"
	}
	panic(fmt.Sprintf("handshake: lsq result %d not explained by any memory or mc port", idx))
}
