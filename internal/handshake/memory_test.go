package handshake

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// standaloneMC builds a controller with two block groups and no companion
// LSQ. Operand layout:
//
//	[memref, memStart, ctrl_0, ldAddr_0, stAddr_0, stData_0, ldAddr_1, ctrlEnd]
//
// Result layout:
//
//	[ldData_0, ldData_1, memEnd]
func standaloneMC() *MemoryControllerOp {
	ports := MCPorts{FuncPorts: FuncPorts{Groups: []GroupPorts{
		{
			Ctrl: &ControlPort{CtrlInputIndex: 2},
			AccessPorts: []MemoryPort{
				LoadPort{AddrInputIndex: 3, DataOutputIndex: 0},
				StorePort{AddrInputIndex: 4, DataInputIndex: 5},
			},
		},
		{
			AccessPorts: []MemoryPort{
				LoadPort{AddrInputIndex: 6, DataOutputIndex: 1},
			},
		},
	}}}
	return NewMemoryControllerOp("mem0", chans("in", 8), chans("out", 3), ports)
}

func TestMemoryController_PortNames(t *testing.T) {
	mc := standaloneMC()
	wantIn := []string{
		"memref", "memStart", "ctrl_0",
		"ldAddr_0", "stAddr_0", "stData_0",
		"ldAddr_1", "ctrlEnd",
	}
	wantOut := []string{"ldData_0", "ldData_1", "memEnd"}
	checkNames(t, mc, wantIn, wantOut)
}

func TestMemoryController_NamesAreBijective(t *testing.T) {
	mc := standaloneMC()
	pn := NewPortNamer(mc)
	seen := map[string]bool{}
	for _, name := range append(append([]string{}, pn.Inputs...), pn.Outputs...) {
		if name == "" {
			t.Fatal("empty port name")
		}
		if seen[name] {
			t.Errorf("port name %q claimed twice", name)
		}
		seen[name] = true
	}
}

func TestMemoryController_LSQForwardSlots(t *testing.T) {
	// One native load group, then the three slots forwarded by the LSQ.
	// Operands: [memref, memStart, ctrl_0, ldAddr_0, <lsq ld>, <lsq st addr>,
	// <lsq st data>, ctrlEnd]; results: [ldData_0, <lsq ld data>, memEnd].
	ports := MCPorts{
		FuncPorts: FuncPorts{Groups: []GroupPorts{
			{
				Ctrl: &ControlPort{CtrlInputIndex: 2},
				AccessPorts: []MemoryPort{
					LoadPort{AddrInputIndex: 3, DataOutputIndex: 0},
				},
			},
		}},
		LSQPort: &LSQLoadStorePort{
			LoadAddrInputIndex:  4,
			StoreAddrInputIndex: 5,
			StoreDataInputIndex: 6,
			LoadDataOutputIndex: 1,
		},
	}
	mc := NewMemoryControllerOp("mem0", chans("in", 8), chans("out", 3), ports)

	// Forwarded accesses continue the controller's own numbering.
	wantIn := []string{
		"memref", "memStart", "ctrl_0", "ldAddr_0",
		"ldAddr_1", "stAddr_0", "stData_0", "ctrlEnd",
	}
	wantOut := []string{"ldData_0", "ldData_1", "memEnd"}
	checkNames(t, mc, wantIn, wantOut)
}

func TestMemoryController_UnexplainedOperandPanics(t *testing.T) {
	// Operand 3 is covered by no group, no control slot and no companion.
	ports := MCPorts{FuncPorts: FuncPorts{Groups: []GroupPorts{
		{AccessPorts: []MemoryPort{LoadPort{AddrInputIndex: 2, DataOutputIndex: 0}}},
	}}}
	mc := NewMemoryControllerOp("mem0", chans("in", 5), chans("out", 2), ports)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for operand no memory port explains")
		}
	}()
	mc.OperandName(3)
}

// slaveLSQ builds an LSQ forwarding to a companion controller. Operand
// layout: [ctrl_0, ldAddr_0, stAddr_0, stData_0, ldDataFromMC]; result
// layout: [ldData_0, ldAddrToMC, stAddrToMC, stDataToMC].
func slaveLSQ() *LSQOp {
	ports := LSQPorts{
		FuncPorts: FuncPorts{Groups: []GroupPorts{
			{
				Ctrl: &ControlPort{CtrlInputIndex: 0},
				AccessPorts: []MemoryPort{
					LoadPort{AddrInputIndex: 1, DataOutputIndex: 0},
					StorePort{AddrInputIndex: 2, DataInputIndex: 3},
				},
			},
		}},
		MCPort: &MCLoadStorePort{
			LoadDataInputIndex:   4,
			LoadAddrOutputIndex:  1,
			StoreAddrOutputIndex: 2,
			StoreDataOutputIndex: 3,
		},
	}
	return NewLSQOp("mem0", chans("in", 5), chans("out", 4), ports)
}

func TestLSQ_SlavePortNames(t *testing.T) {
	lsq := slaveLSQ()
	// A slave LSQ reserves none of the global control slots.
	wantIn := []string{"ctrl_0", "ldAddr_0", "stAddr_0", "stData_0", "ldDataFromMC"}
	wantOut := []string{"ldData_0", "ldAddrToMC", "stAddrToMC", "stDataToMC"}
	checkNames(t, lsq, wantIn, wantOut)
}

func TestLSQ_MasterPortNames(t *testing.T) {
	ports := LSQPorts{FuncPorts: FuncPorts{Groups: []GroupPorts{
		{
			Ctrl: &ControlPort{CtrlInputIndex: 2},
			AccessPorts: []MemoryPort{
				LoadPort{AddrInputIndex: 3, DataOutputIndex: 0},
			},
		},
	}}}
	lsq := NewLSQOp("mem0", chans("in", 5), chans("out", 2), ports)

	if !lsq.IsMasterInterface() {
		t.Fatal("LSQ without companion controller must be the master interface")
	}
	wantIn := []string{"memref", "memStart", "ctrl_0", "ldAddr_0", "ctrlEnd"}
	wantOut := []string{"ldData_0", "memEnd"}
	checkNames(t, lsq, wantIn, wantOut)
}

func TestLSQ_BridgePartitionsIndexRange(t *testing.T) {
	lsq := slaveLSQ()
	pn := NewPortNamer(lsq)

	// Every index is explained exactly once: locally by a group or through
	// the companion bridge, with no gap and no overlap.
	seen := map[string]bool{}
	for idx, name := range pn.Inputs {
		if name == "" {
			t.Errorf("operand %d unexplained", idx)
		}
		if seen["in:"+name] {
			t.Errorf("operand name %q claimed twice", name)
		}
		seen["in:"+name] = true
	}
	for idx, name := range pn.Outputs {
		if name == "" {
			t.Errorf("result %d unexplained", idx)
		}
		if seen["out:"+name] {
			t.Errorf("result name %q claimed twice", name)
		}
		seen["out:"+name] = true
	}
	if len(pn.Inputs) != lsq.NumOperands() || len(pn.Outputs) != lsq.NumResults() {
		t.Errorf("got %d/%d names for %d operands / %d results",
			len(pn.Inputs), len(pn.Outputs), lsq.NumOperands(), lsq.NumResults())
	}
}

func TestLSQ_IsMasterInterface(t *testing.T) {
	if master := slaveLSQ().IsMasterInterface(); master {
		t.Error("LSQ with companion controller must not be the master interface")
	}
	if master := standaloneMC().IsMasterInterface(); !master {
		t.Error("memory controller must always be the master interface")
	}
}

func TestLSQ_AccessorsDelegateToCompanion(t *testing.T) {
	f := &FuncOp{Name: "kernel", ResNames: []string{"out0"}}
	mc := standaloneMC()
	lsq := slaveLSQ()
	f.AddOp(mc)
	f.AddOp(lsq)

	pairs := []struct {
		what      string
		got, want Value
	}{
		{"memref", lsq.MemRef(), mc.MemRef()},
		{"memStart", lsq.MemStart(), mc.MemStart()},
		{"memEnd", lsq.MemEnd(), mc.MemEnd()},
		{"ctrlEnd", lsq.CtrlEnd(), mc.CtrlEnd()},
	}
	for _, pair := range pairs {
		if diff := cmp.Diff(pair.want, pair.got); diff != "" {
			t.Errorf("%s not delegated to companion controller:\n%s", pair.what, diff)
		}
	}
}

func TestLSQ_StandaloneAccessors(t *testing.T) {
	ports := LSQPorts{FuncPorts: FuncPorts{Groups: []GroupPorts{
		{AccessPorts: []MemoryPort{LoadPort{AddrInputIndex: 2, DataOutputIndex: 0}}},
	}}}
	ins := chans("in", 4)
	outs := chans("out", 2)
	lsq := NewLSQOp("mem0", ins, outs, ports)

	if got := lsq.MemRef(); got != ins[0] {
		t.Errorf("MemRef() = %v, want first operand %v", got, ins[0])
	}
	if got := lsq.MemStart(); got != ins[1] {
		t.Errorf("MemStart() = %v, want second operand %v", got, ins[1])
	}
	if got := lsq.CtrlEnd(); got != ins[3] {
		t.Errorf("CtrlEnd() = %v, want last operand %v", got, ins[3])
	}
	if got := lsq.MemEnd(); got != outs[1] {
		t.Errorf("MemEnd() = %v, want last result %v", got, outs[1])
	}
}

func TestLSQ_MissingCompanionPanics(t *testing.T) {
	f := &FuncOp{Name: "kernel"}
	lsq := slaveLSQ()
	f.AddOp(lsq) // no controller in the circuit
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for claimed companion controller that is absent")
		}
	}()
	lsq.MemRef()
}
