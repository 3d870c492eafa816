package handshake

import "fmt"

// MemoryPort is one load or store access wired to a memory interface. The
// indices it carries are absolute positions in the owning operation's
// operand/result lists, computed by the memory-port analysis that built the
// description.
type MemoryPort interface{ isMemoryPort() }

// LoadPort is a load access: one address input, one data output.
type LoadPort struct {
	AddrInputIndex  int
	DataOutputIndex int
}

// StorePort is a store access: one address input, one data input.
type StorePort struct {
	AddrInputIndex int
	DataInputIndex int
}

func (LoadPort) isMemoryPort()  {}
func (StorePort) isMemoryPort() {}

// ControlPort is a basic block's control signal into a memory interface.
type ControlPort struct {
	CtrlInputIndex int
}

// GroupPorts is one basic block's contribution to a memory interface: an
// optional control port and the block's accesses in program order.
type GroupPorts struct {
	Ctrl        *ControlPort
	AccessPorts []MemoryPort
}

func (g GroupPorts) HasControl() bool { return g.Ctrl != nil }

// FuncPorts describes every block group of one memory interface.
type FuncPorts struct {
	Groups []GroupPorts
}

// NumLoadPorts counts the interface's own load accesses across all groups.
func (p FuncPorts) NumLoadPorts() int {
	count := 0
	for _, group := range p.Groups {
		for _, access := range group.AccessPorts {
			if _, ok := access.(LoadPort); ok {
				count++
			}
		}
	}
	return count
}

// NumStorePorts counts the interface's own store accesses across all groups.
func (p FuncPorts) NumStorePorts() int {
	count := 0
	for _, group := range p.Groups {
		for _, access := range group.AccessPorts {
			if _, ok := access.(StorePort); ok {
				count++
			}
		}
	}
	return count
}

// LSQLoadStorePort locates, on a memory controller, the slots wired to a
// companion LSQ: the forwarded load/store requests coming in and the load
// data going back out.
type LSQLoadStorePort struct {
	LoadAddrInputIndex  int
	StoreAddrInputIndex int
	StoreDataInputIndex int
	LoadDataOutputIndex int
}

// MCLoadStorePort locates, on an LSQ, the slots wired to a companion memory
// controller: the load/store requests going out and the load data coming
// back in.
type MCLoadStorePort struct {
	LoadAddrOutputIndex  int
	StoreAddrOutputIndex int
	StoreDataOutputIndex int
	LoadDataInputIndex   int
}

// MCPorts is the port description of a memory controller.
type MCPorts struct {
	FuncPorts
	LSQPort *LSQLoadStorePort
}

// ConnectsToLSQ reports whether the controller serves a companion LSQ.
func (p MCPorts) ConnectsToLSQ() bool { return p.LSQPort != nil }

// LSQPorts is the port description of a load-store queue.
type LSQPorts struct {
	FuncPorts
	MCPort *MCLoadStorePort
}

// ConnectsToMC reports whether the queue forwards to a companion memory
// controller.
func (p LSQPorts) ConnectsToMC() bool { return p.MCPort != nil }

// MemoryInterface is implemented by the two memory-interfacing operations.
// The master interface for a memory owns the four global control signals:
// memory reference (operand 0), start-of-access (operand 1), end-of-control
// (last operand) and end-of-memory (last result).
type MemoryInterface interface {
	Operation
	NamedIO
	IsMasterInterface() bool
	MemRef() Value
	MemStart() Value
	MemEnd() Value
	CtrlEnd() Value
}

// MemoryControllerOp issues accesses directly to one memory, on behalf of
// its own block groups and, when paired, of a companion LSQ.
type MemoryControllerOp struct {
	node
	MemName string
	parent  *FuncOp
	ports   MCPorts
}

func NewMemoryControllerOp(memName string, ins, outs []Value, ports MCPorts) *MemoryControllerOp {
	return &MemoryControllerOp{node: node{ins: ins, outs: outs}, MemName: memName, ports: ports}
}

func (op *MemoryControllerOp) OpName() string      { return "mem_controller" }
func (op *MemoryControllerOp) setParent(f *FuncOp) { op.parent = f }

// Ports returns the controller's memory-port description.
func (op *MemoryControllerOp) Ports() MCPorts { return op.ports }

// IsMasterInterface is always true for a memory controller.
func (op *MemoryControllerOp) IsMasterInterface() bool { return true }

func (op *MemoryControllerOp) MemRef() Value   { return op.ins[0] }
func (op *MemoryControllerOp) MemStart() Value { return op.ins[1] }
func (op *MemoryControllerOp) CtrlEnd() Value  { return op.ins[len(op.ins)-1] }
func (op *MemoryControllerOp) MemEnd() Value   { return op.outs[len(op.outs)-1] }

// LSQOp buffers and reorders per-block accesses to one memory, either
// issuing them itself or forwarding them to a companion memory controller.
type LSQOp struct {
	node
	MemName string
	parent  *FuncOp
	ports   LSQPorts
}

func NewLSQOp(memName string, ins, outs []Value, ports LSQPorts) *LSQOp {
	return &LSQOp{node: node{ins: ins, outs: outs}, MemName: memName, ports: ports}
}

func (op *LSQOp) OpName() string      { return "lsq" }
func (op *LSQOp) setParent(f *FuncOp) { op.parent = f }

// Ports returns the queue's memory-port description.
func (op *LSQOp) Ports() LSQPorts { return op.ports }

// ConnectedMC resolves the companion memory controller through the enclosing
// circuit. The relation is directional: the ports claim the connection, the
// circuit owns both operations. A claimed companion that cannot be found is
// a fatal contract violation.
func (op *LSQOp) ConnectedMC() *MemoryControllerOp {
	if !op.ports.ConnectsToMC() {
		return nil
	}
	if op.parent != nil {
		for _, other := range op.parent.Ops {
			if mc, ok := other.(*MemoryControllerOp); ok && mc.MemName == op.MemName {
				return mc
			}
		}
	}
	panic(fmt.Sprintf("handshake: lsq for memory %q claims a companion controller but none exists", op.MemName))
}

// IsMasterInterface is true only for an LSQ with no companion controller.
func (op *LSQOp) IsMasterInterface() bool { return !op.ports.ConnectsToMC() }

func (op *LSQOp) MemRef() Value {
	if mc := op.ConnectedMC(); mc != nil {
		return mc.MemRef()
	}
	return op.ins[0]
}

func (op *LSQOp) MemStart() Value {
	if mc := op.ConnectedMC(); mc != nil {
		return mc.MemStart()
	}
	return op.ins[1]
}

func (op *LSQOp) MemEnd() Value {
	if mc := op.ConnectedMC(); mc != nil {
		return mc.MemEnd()
	}
	return op.outs[len(op.outs)-1]
}

func (op *LSQOp) CtrlEnd() Value {
	if mc := op.ConnectedMC(); mc != nil {
		return mc.CtrlEnd()
	}
	return op.ins[len(op.ins)-1]
}
