package circuitdesc

import (
	"fmt"

	"github.com/silica-hls/silica/internal/handshake"
)

var arithKinds = map[string]handshake.ArithKind{
	"addi":     handshake.ArithAdd,
	"subi":     handshake.ArithSub,
	"muli":     handshake.ArithMul,
	"divsi":    handshake.ArithDivS,
	"divui":    handshake.ArithDivU,
	"andi":     handshake.ArithAnd,
	"ori":      handshake.ArithOr,
	"xori":     handshake.ArithXor,
	"shli":     handshake.ArithShl,
	"shrsi":    handshake.ArithShrS,
	"shrui":    handshake.ArithShrU,
	"cmpi":     handshake.ArithCmpI,
	"addf":     handshake.ArithAddF,
	"subf":     handshake.ArithSubF,
	"mulf":     handshake.ArithMulF,
	"divf":     handshake.ArithDivF,
	"maximumf": handshake.ArithMaxF,
	"minimumf": handshake.ArithMinF,
	"cmpf":     handshake.ArithCmpF,
}

var unaryKinds = map[string]handshake.UnaryKind{
	"extsi":  handshake.UnaryExtS,
	"extui":  handshake.UnaryExtU,
	"trunci": handshake.UnaryTrunc,
	"negf":   handshake.UnaryNegF,
}

// memoryPair records which interface kinds a memory is declared with. An MC
// and an LSQ on the same memory are companions.
type memoryPair struct {
	hasMC  bool
	hasLSQ bool
}

func scanMemories(ops []OpDecl) (map[string]*memoryPair, error) {
	memories := make(map[string]*memoryPair)
	for _, decl := range ops {
		if decl.Kind != "mem_controller" && decl.Kind != "lsq" {
			continue
		}
		if decl.Memory == "" {
			return nil, fmt.Errorf("circuitdesc: %s without a memory name", decl.Kind)
		}
		pair := memories[decl.Memory]
		if pair == nil {
			pair = &memoryPair{}
			memories[decl.Memory] = pair
		}
		switch decl.Kind {
		case "mem_controller":
			if pair.hasMC {
				return nil, fmt.Errorf("circuitdesc: memory %q has two controllers", decl.Memory)
			}
			pair.hasMC = true
		case "lsq":
			if pair.hasLSQ {
				return nil, fmt.Errorf("circuitdesc: memory %q has two load-store queues", decl.Memory)
			}
			pair.hasLSQ = true
		}
	}
	return memories, nil
}

// numMasterInterfaces counts the interfaces that signal completion to the
// terminator. Every memory has exactly one master: its controller, or the
// LSQ when it stands alone.
func numMasterInterfaces(memories map[string]*memoryPair) int {
	return len(memories)
}

// Build turns the description into a handshake circuit.
func (f *File) Build() (*handshake.FuncOp, error) {
	circuit := f.Circuit
	fn := &handshake.FuncOp{Name: circuit.Name}
	for _, arg := range circuit.Arguments {
		typ, err := arg.valueType()
		if err != nil {
			return nil, err
		}
		fn.ArgNames = append(fn.ArgNames, arg.Name)
		fn.Args = append(fn.Args, handshake.Value{Name: arg.Name, Type: typ})
	}
	for _, res := range circuit.Results {
		if _, err := res.valueType(); err != nil {
			return nil, err
		}
		fn.ResNames = append(fn.ResNames, res.Name)
	}

	memories, err := scanMemories(circuit.Operations)
	if err != nil {
		return nil, err
	}

	for i, decl := range circuit.Operations {
		op, err := buildOp(decl, i, fn, memories)
		if err != nil {
			return nil, err
		}
		fn.AddOp(op)
	}
	return fn, nil
}

func buildOp(decl OpDecl, pos int, fn *handshake.FuncOp, memories map[string]*memoryPair) (handshake.Operation, error) {
	inst := decl.Name
	if inst == "" {
		inst = fmt.Sprintf("%s%d", decl.Kind, pos)
	}
	data := handshake.ChannelType(32)
	ctrl := handshake.ControlType()
	val := func(suffix string, typ handshake.Type) handshake.Value {
		return handshake.Value{Name: inst + "." + suffix, Type: typ}
	}
	valsOf := func(prefix string, n int, typ handshake.Type) []handshake.Value {
		out := make([]handshake.Value, n)
		for i := range out {
			out[i] = val(fmt.Sprintf("%s%d", prefix, i), typ)
		}
		return out
	}

	switch decl.Kind {
	case "arith":
		kind, ok := arithKinds[decl.Op]
		if !ok {
			return nil, fmt.Errorf("circuitdesc: unknown arith op %q", decl.Op)
		}
		return handshake.NewArithOp(kind, val("lhs", data), val("rhs", data), val("res", data)), nil

	case "unary":
		kind, ok := unaryKinds[decl.Op]
		if !ok {
			return nil, fmt.Errorf("circuitdesc: unknown unary op %q", decl.Op)
		}
		return handshake.NewUnaryOp(kind, val("in", data), val("out", data)), nil

	case "mux":
		n := decl.Inputs
		if n == 0 {
			n = 2
		}
		return handshake.NewMuxOp(val("index", data), valsOf("in", n, data), val("out", data)), nil

	case "control_merge":
		n := decl.Inputs
		if n == 0 {
			n = 2
		}
		return handshake.NewControlMergeOp(valsOf("in", n, ctrl), val("out", ctrl), val("index", data)), nil

	case "cond_br":
		return handshake.NewCondBranchOp(val("cond", data), val("data", data),
			val("true", data), val("false", data)), nil

	case "constant":
		return handshake.NewConstantOp(val("ctrl", ctrl), val("out", data)), nil

	case "select":
		return handshake.NewSelectOp(val("cond", data), val("true", data),
			val("false", data), val("out", data)), nil

	case "end":
		memDone := numMasterInterfaces(memories)
		if decl.MemDone != nil {
			memDone = *decl.MemDone
		}
		ins := make([]handshake.Value, 0, len(fn.ResNames)+memDone)
		ins = append(ins, valsOf("in", len(fn.ResNames), data)...)
		ins = append(ins, valsOf("memDone", memDone, ctrl)...)
		return handshake.NewEndOp(ins), nil

	case "sharing_wrapper":
		if decl.SharedOperations <= 0 || decl.SharedOperands <= 0 {
			return nil, fmt.Errorf("circuitdesc: sharing_wrapper needs shared_operations and shared_operands")
		}
		numIns := decl.SharedOperations*decl.SharedOperands + 1
		numOuts := decl.SharedOperations + decl.SharedOperands
		return handshake.NewSharingWrapperOp(valsOf("in", numIns, data), valsOf("out", numOuts, data),
			decl.SharedOperations, decl.SharedOperands), nil

	case "mem_controller":
		return buildMC(decl, inst, memories[decl.Memory])

	case "lsq":
		return buildLSQ(decl, inst, memories[decl.Memory])

	default:
		return handshake.NewUnknownOp(decl.Kind,
			valsOf("in", decl.Inputs, data), valsOf("out", decl.Results, data)), nil
	}
}

func (d OpDecl) addrType() handshake.Type {
	width := d.AddrWidth
	if width == 0 {
		width = 32
	}
	return handshake.ChannelType(width)
}

func (d OpDecl) dataType() handshake.Type {
	width := d.DataWidth
	if width == 0 {
		width = 32
	}
	return handshake.ChannelType(width)
}

// buildGroups appends one operand/result slot per declared control port and
// access, recording their absolute indices. ins and outs grow in declaration
// order, which fixes the group-relative numbering.
func buildGroups(decl OpDecl, inst string, ins, outs []handshake.Value) ([]handshake.GroupPorts, []handshake.Value, []handshake.Value, error) {
	addr, data := decl.addrType(), decl.dataType()
	ctrl := handshake.ControlType()
	var groups []handshake.GroupPorts
	for gi, groupDecl := range decl.Groups {
		var group handshake.GroupPorts
		name := func(suffix string) handshake.Value {
			return handshake.Value{Name: fmt.Sprintf("%s.g%d.%s", inst, gi, suffix), Type: data}
		}
		if groupDecl.Control {
			group.Ctrl = &handshake.ControlPort{CtrlInputIndex: len(ins)}
			ins = append(ins, handshake.Value{Name: fmt.Sprintf("%s.g%d.ctrl", inst, gi), Type: ctrl})
		}
		for ai, access := range groupDecl.Accesses {
			switch access {
			case "load":
				group.AccessPorts = append(group.AccessPorts, handshake.LoadPort{
					AddrInputIndex:  len(ins),
					DataOutputIndex: len(outs),
				})
				ins = append(ins, handshake.Value{Name: fmt.Sprintf("%s.g%d.a%d.addr", inst, gi, ai), Type: addr})
				outs = append(outs, name(fmt.Sprintf("a%d.data", ai)))
			case "store":
				group.AccessPorts = append(group.AccessPorts, handshake.StorePort{
					AddrInputIndex: len(ins),
					DataInputIndex: len(ins) + 1,
				})
				ins = append(ins, handshake.Value{Name: fmt.Sprintf("%s.g%d.a%d.addr", inst, gi, ai), Type: addr})
				ins = append(ins, name(fmt.Sprintf("a%d.data", ai)))
			default:
				return nil, nil, nil, fmt.Errorf("circuitdesc: unknown access kind %q", access)
			}
		}
		groups = append(groups, group)
	}
	return groups, ins, outs, nil
}

func buildMC(decl OpDecl, inst string, pair *memoryPair) (*handshake.MemoryControllerOp, error) {
	addr, data := decl.addrType(), decl.dataType()
	ctrl := handshake.ControlType()

	ins := []handshake.Value{
		{Name: inst + ".memref", Type: handshake.MemRefType()},
		{Name: inst + ".memStart", Type: ctrl},
	}
	var outs []handshake.Value
	groups, ins, outs, err := buildGroups(decl, inst, ins, outs)
	if err != nil {
		return nil, err
	}

	var lsqPort *handshake.LSQLoadStorePort
	if pair.hasLSQ {
		lsqPort = &handshake.LSQLoadStorePort{
			LoadAddrInputIndex:  len(ins),
			StoreAddrInputIndex: len(ins) + 1,
			StoreDataInputIndex: len(ins) + 2,
			LoadDataOutputIndex: len(outs),
		}
		ins = append(ins,
			handshake.Value{Name: inst + ".lsqLdAddr", Type: addr},
			handshake.Value{Name: inst + ".lsqStAddr", Type: addr},
			handshake.Value{Name: inst + ".lsqStData", Type: data})
		outs = append(outs, handshake.Value{Name: inst + ".lsqLdData", Type: data})
	}

	ins = append(ins, handshake.Value{Name: inst + ".ctrlEnd", Type: ctrl})
	outs = append(outs, handshake.Value{Name: inst + ".memEnd", Type: ctrl})

	ports := handshake.MCPorts{
		FuncPorts: handshake.FuncPorts{Groups: groups},
		LSQPort:   lsqPort,
	}
	return handshake.NewMemoryControllerOp(decl.Memory, ins, outs, ports), nil
}

func buildLSQ(decl OpDecl, inst string, pair *memoryPair) (*handshake.LSQOp, error) {
	addr, data := decl.addrType(), decl.dataType()
	ctrl := handshake.ControlType()

	var ins, outs []handshake.Value
	master := !pair.hasMC
	if master {
		ins = append(ins,
			handshake.Value{Name: inst + ".memref", Type: handshake.MemRefType()},
			handshake.Value{Name: inst + ".memStart", Type: ctrl})
	}
	groups, ins, outs, err := buildGroups(decl, inst, ins, outs)
	if err != nil {
		return nil, err
	}

	var mcPort *handshake.MCLoadStorePort
	if pair.hasMC {
		mcPort = &handshake.MCLoadStorePort{
			LoadDataInputIndex:   len(ins),
			LoadAddrOutputIndex:  len(outs),
			StoreAddrOutputIndex: len(outs) + 1,
			StoreDataOutputIndex: len(outs) + 2,
		}
		ins = append(ins, handshake.Value{Name: inst + ".mcLdData", Type: data})
		outs = append(outs,
			handshake.Value{Name: inst + ".mcLdAddr", Type: addr},
			handshake.Value{Name: inst + ".mcStAddr", Type: addr},
			handshake.Value{Name: inst + ".mcStData", Type: data})
	} else {
		ins = append(ins, handshake.Value{Name: inst + ".ctrlEnd", Type: ctrl})
		outs = append(outs, handshake.Value{Name: inst + ".memEnd", Type: ctrl})
	}

	ports := handshake.LSQPorts{
		FuncPorts: handshake.FuncPorts{Groups: groups},
		MCPort:    mcPort,
	}
	return handshake.NewLSQOp(decl.Memory, ins, outs, ports), nil
}
