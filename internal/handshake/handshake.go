// Package handshake defines the dataflow circuit IR surface read by the
// port-naming subsystem: operation nodes with ordered input/output channels,
// the circuit boundary, and memory-interface port descriptions.
//
// Every operation maps one-to-one onto a hardware unit communicating over
// handshake channels, so each operand and result needs a deterministic,
// human-readable port name for netlist export and waveform labeling. Names
// are never stored on the nodes; they are recomputed from shape on demand.
package handshake

import (
	"fmt"
	"strconv"
)

// TypeKind classifies a channel type.
type TypeKind int

const (
	TypeControl TypeKind = iota // dataless control token
	TypeChannel                 // data channel with a bit width
	TypeMemRef                  // reference to an external memory
)

// Type is the type of a handshake channel.
type Type struct {
	Kind  TypeKind
	Width int // valid for TypeChannel
}

func (t Type) String() string {
	switch t.Kind {
	case TypeControl:
		return "ctrl"
	case TypeChannel:
		return fmt.Sprintf("ch<%d>", t.Width)
	case TypeMemRef:
		return "memref"
	default:
		return "type?"
	}
}

// ControlType returns the dataless control token type.
func ControlType() Type { return Type{Kind: TypeControl} }

// ChannelType returns a data channel type of the given width.
func ChannelType(width int) Type { return Type{Kind: TypeChannel, Width: width} }

// MemRefType returns the external-memory reference type.
func MemRefType() Type { return Type{Kind: TypeMemRef} }

// Value is one handshake channel endpoint, an operand of or a result
// produced by an operation.
type Value struct {
	Name string
	Type Type
}

// Operation is implemented by every circuit IR node. Operand and result
// order is fixed at construction and never reordered.
type Operation interface {
	// OpName returns the operation mnemonic.
	OpName() string
	NumOperands() int
	NumResults() int
	Operand(idx int) Value
	Result(idx int) Value
}

// NamedIO is the optional capability of operations that supply their own
// port names instead of the positional defaults. Implementations must
// treat an out-of-range index as a fatal contract violation.
type NamedIO interface {
	OperandName(idx int) string
	ResultName(idx int) string
}

// node carries the ordered operand/result channels shared by all concrete
// operations.
type node struct {
	ins  []Value
	outs []Value
}

func (n *node) NumOperands() int { return len(n.ins) }
func (n *node) NumResults() int  { return len(n.outs) }

func (n *node) Operand(idx int) Value {
	assertIndex(idx, len(n.ins), "operand")
	return n.ins[idx]
}

func (n *node) Result(idx int) Value {
	assertIndex(idx, len(n.outs), "result")
	return n.outs[idx]
}

func assertIndex(idx, n int, what string) {
	if idx < 0 || idx >= n {
		panic(fmt.Sprintf("handshake: %s index %d out of range [0, %d)", what, idx, n))
	}
}

// defaultOperandName is the positional fallback name for operand idx.
func defaultOperandName(idx int) string { return "in" + strconv.Itoa(idx) }

// defaultResultName is the positional fallback name for result idx.
func defaultResultName(idx int) string { return "out" + strconv.Itoa(idx) }

// FuncOp is the circuit boundary: the handshake function whose arguments and
// results carry the names declared by the frontend. It owns the circuit's
// operations.
type FuncOp struct {
	Name     string
	ArgNames []string
	ResNames []string
	Args     []Value
	Ops      []Operation
}

func (f *FuncOp) OpName() string   { return "func" }
func (f *FuncOp) NumOperands() int { return len(f.ArgNames) }
func (f *FuncOp) NumResults() int  { return len(f.ResNames) }

func (f *FuncOp) Operand(idx int) Value {
	assertIndex(idx, len(f.ArgNames), "operand")
	if idx < len(f.Args) {
		return f.Args[idx]
	}
	return Value{Name: f.ArgNames[idx]}
}

// Result names a boundary result. The circuit's result values are produced
// by the terminator, so only the declared name is available here.
func (f *FuncOp) Result(idx int) Value {
	assertIndex(idx, len(f.ResNames), "result")
	return Value{Name: f.ResNames[idx]}
}

// parented is implemented by operations that need their enclosing circuit.
type parented interface{ setParent(f *FuncOp) }

// AddOp appends op to the circuit and links it back to f when the operation
// kind needs its enclosing circuit (terminator, memory interfaces).
func (f *FuncOp) AddOp(op Operation) {
	if p, ok := op.(parented); ok {
		p.setParent(f)
	}
	f.Ops = append(f.Ops, op)
}

// ArithKind enumerates the binary arithmetic, compare and logic operations.
type ArithKind int

const (
	ArithAdd ArithKind = iota
	ArithSub
	ArithMul
	ArithDivS
	ArithDivU
	ArithAnd
	ArithOr
	ArithXor
	ArithShl
	ArithShrS
	ArithShrU
	ArithCmpI
	ArithAddF
	ArithSubF
	ArithMulF
	ArithDivF
	ArithMaxF
	ArithMinF
	ArithCmpF
)

func (k ArithKind) String() string {
	switch k {
	case ArithAdd:
		return "addi"
	case ArithSub:
		return "subi"
	case ArithMul:
		return "muli"
	case ArithDivS:
		return "divsi"
	case ArithDivU:
		return "divui"
	case ArithAnd:
		return "andi"
	case ArithOr:
		return "ori"
	case ArithXor:
		return "xori"
	case ArithShl:
		return "shli"
	case ArithShrS:
		return "shrsi"
	case ArithShrU:
		return "shrui"
	case ArithCmpI:
		return "cmpi"
	case ArithAddF:
		return "addf"
	case ArithSubF:
		return "subf"
	case ArithMulF:
		return "mulf"
	case ArithDivF:
		return "divf"
	case ArithMaxF:
		return "maximumf"
	case ArithMinF:
		return "minimumf"
	case ArithCmpF:
		return "cmpf"
	default:
		return "arith?"
	}
}

// ArithOp is a two-operand arithmetic, compare or logic unit.
type ArithOp struct {
	node
	Kind ArithKind
}

func NewArithOp(kind ArithKind, lhs, rhs, result Value) *ArithOp {
	return &ArithOp{node: node{ins: []Value{lhs, rhs}, outs: []Value{result}}, Kind: kind}
}

func (op *ArithOp) OpName() string { return op.Kind.String() }

// UnaryKind enumerates the single-operand conversion units.
type UnaryKind int

const (
	UnaryExtS UnaryKind = iota
	UnaryExtU
	UnaryTrunc
	UnaryNegF
)

func (k UnaryKind) String() string {
	switch k {
	case UnaryExtS:
		return "extsi"
	case UnaryExtU:
		return "extui"
	case UnaryTrunc:
		return "trunci"
	case UnaryNegF:
		return "negf"
	default:
		return "unary?"
	}
}

// UnaryOp is a single-operand conversion unit (extension, truncation,
// negation).
type UnaryOp struct {
	node
	Kind UnaryKind
}

func NewUnaryOp(kind UnaryKind, in, out Value) *UnaryOp {
	return &UnaryOp{node: node{ins: []Value{in}, outs: []Value{out}}, Kind: kind}
}

func (op *UnaryOp) OpName() string { return op.Kind.String() }

// MuxOp selects one of its data inputs according to its index input
// (operand 0).
type MuxOp struct {
	node
}

func NewMuxOp(index Value, data []Value, result Value) *MuxOp {
	ins := append([]Value{index}, data...)
	return &MuxOp{node: node{ins: ins, outs: []Value{result}}}
}

func (op *MuxOp) OpName() string { return "mux" }

func (op *MuxOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")
	if idx == 0 {
		return "index"
	}
	return defaultOperandName(idx - 1)
}

func (op *MuxOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")
	return defaultResultName(idx)
}

// ControlMergeOp merges control tokens and reports which input fired on its
// index result.
type ControlMergeOp struct {
	node
}

func NewControlMergeOp(ins []Value, out, index Value) *ControlMergeOp {
	return &ControlMergeOp{node: node{ins: ins, outs: []Value{out, index}}}
}

func (op *ControlMergeOp) OpName() string { return "control_merge" }

func (op *ControlMergeOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")
	return defaultOperandName(idx)
}

func (op *ControlMergeOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")
	if idx == 0 {
		return "outs"
	}
	return "index"
}

// BranchTrueIndex is the result index carrying the token when the branch
// condition is true.
const BranchTrueIndex = 0

// CondBranchOp steers its data input to one of two outputs according to its
// condition input.
type CondBranchOp struct {
	node
}

func NewCondBranchOp(condition, data, trueOut, falseOut Value) *CondBranchOp {
	return &CondBranchOp{node: node{
		ins:  []Value{condition, data},
		outs: []Value{trueOut, falseOut},
	}}
}

func (op *CondBranchOp) OpName() string { return "cond_br" }

func (op *CondBranchOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")
	if idx == 0 {
		return "condition"
	}
	return "data"
}

func (op *CondBranchOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")
	if idx == BranchTrueIndex {
		return "trueOut"
	}
	return "falseOut"
}

// ConstantOp materializes a constant each time its control input fires.
type ConstantOp struct {
	node
}

func NewConstantOp(ctrl, result Value) *ConstantOp {
	return &ConstantOp{node: node{ins: []Value{ctrl}, outs: []Value{result}}}
}

func (op *ConstantOp) OpName() string { return "constant" }

func (op *ConstantOp) OperandName(idx int) string {
	assertIndex(idx, 1, "operand")
	return "ctrl"
}

func (op *ConstantOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")
	return defaultResultName(idx)
}

// SelectOp picks between its two value inputs according to its condition
// input, without speculation.
type SelectOp struct {
	node
}

func NewSelectOp(condition, trueValue, falseValue, result Value) *SelectOp {
	return &SelectOp{node: node{
		ins:  []Value{condition, trueValue, falseValue},
		outs: []Value{result},
	}}
}

func (op *SelectOp) OpName() string { return "select" }

func (op *SelectOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")
	switch idx {
	case 0:
		return "condition"
	case 1:
		return "trueValue"
	default:
		return "falseValue"
	}
}

func (op *SelectOp) ResultName(idx int) string {
	assertIndex(idx, 1, "result")
	return "result"
}

// EndOp is the circuit terminator. Its first operands mirror the circuit's
// declared results; the remaining operands are memory completion signals,
// one per memory interface. It forwards the circuit's live values to the
// circuit boundary, so the port namer also gives it one output per declared
// circuit result.
type EndOp struct {
	node
	parent *FuncOp
}

func NewEndOp(ins []Value) *EndOp {
	return &EndOp{node: node{ins: ins}}
}

func (op *EndOp) OpName() string      { return "end" }
func (op *EndOp) setParent(f *FuncOp) { op.parent = f }
func (op *EndOp) ParentFunc() *FuncOp { return op.parent }

func (op *EndOp) enclosingFunc() *FuncOp {
	if op.parent == nil {
		panic("handshake: end operation outside of a handshake function")
	}
	return op.parent
}

func (op *EndOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")
	numResults := len(op.enclosingFunc().ResNames)
	if idx < numResults {
		return defaultOperandName(idx)
	}
	return "memDone_" + strconv.Itoa(idx-numResults)
}

func (op *EndOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")
	return defaultResultName(idx)
}

// SharingWrapperOp multiplexes several operations onto one shared unit. The
// wrapped operations' operands arrive first, grouped per operation, followed
// by the shared unit's output; results expose one output per wrapped
// operation, followed by the operands forwarded to the shared unit.
type SharingWrapperOp struct {
	node
	NumSharedOperations int
	NumSharedOperands   int // operands consumed by each wrapped operation
}

func NewSharingWrapperOp(ins, outs []Value, numOperations, numOperands int) *SharingWrapperOp {
	return &SharingWrapperOp{
		node:                node{ins: ins, outs: outs},
		NumSharedOperations: numOperations,
		NumSharedOperands:   numOperands,
	}
}

func (op *SharingWrapperOp) OpName() string { return "sharing_wrapper" }

func (op *SharingWrapperOp) OperandName(idx int) string {
	assertIndex(idx, op.NumOperands(), "operand")
	if idx < op.NumSharedOperations*op.NumSharedOperands {
		return "op" + strconv.Itoa(idx/op.NumSharedOperands) +
			"in" + strconv.Itoa(idx%op.NumSharedOperands)
	}
	return "fromSharedUnitOut0"
}

func (op *SharingWrapperOp) ResultName(idx int) string {
	assertIndex(idx, op.NumResults(), "result")
	if idx < op.NumSharedOperations {
		return "op" + strconv.Itoa(idx) + "out0"
	}
	return "toSharedUnitIn" + strconv.Itoa(idx-op.NumSharedOperations)
}

// UnknownOp is a generic node for operation kinds without dedicated naming
// rules; its ports get the positional default names.
type UnknownOp struct {
	node
	Name string
}

func NewUnknownOp(name string, ins, outs []Value) *UnknownOp {
	return &UnknownOp{node: node{ins: ins, outs: outs}, Name: name}
}

func (op *UnknownOp) OpName() string { return op.Name }
