// Package circuitdesc loads declarative descriptions of handshake circuits.
// A description lists the circuit boundary and its operations, including the
// per-block access groups of memory interfaces, and is turned into
// handshake IR nodes whose operand/result layouts follow the memory
// interface conventions (reserved control slots on the master interface,
// group declaration order, companion forwarding slots after native groups).
//
// The description decides no allocation policy; which accesses belong to
// which group or interface is stated in the file, the builder only computes
// the resulting port indices.
package circuitdesc

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/silica-hls/silica/internal/handshake"
)

// DefaultFormatConstraint is the range of description format versions this
// loader understands.
const DefaultFormatConstraint = ">=1.0.0 <2.0.0"

// File is the top level of a circuit description.
type File struct {
	FormatVersion string  `yaml:"format_version"`
	Circuit       Circuit `yaml:"circuit"`
}

// Circuit declares the boundary signature and the operation list.
type Circuit struct {
	Name       string     `yaml:"name"`
	Arguments  []PortDecl `yaml:"arguments"`
	Results    []PortDecl `yaml:"results"`
	Operations []OpDecl   `yaml:"operations"`
}

// PortDecl declares one boundary argument or result.
type PortDecl struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`  // ctrl, memref or channel (default)
	Width int    `yaml:"width"` // channel bit width, default 32
}

// OpDecl declares one operation. Which fields apply depends on the kind.
type OpDecl struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`

	// arith and unary sub-kind mnemonic (addi, cmpf, extsi, ...).
	Op string `yaml:"op"`

	// Data input count for mux and control_merge; port counts for kinds
	// without dedicated rules.
	Inputs  int `yaml:"inputs"`
	Results int `yaml:"results"`

	// sharing_wrapper shape.
	SharedOperations int `yaml:"shared_operations"`
	SharedOperands   int `yaml:"shared_operands"`

	// Memory interfaces. An MC and an LSQ declared for the same memory are
	// companions.
	Memory    string      `yaml:"memory"`
	Groups    []GroupDecl `yaml:"groups"`
	AddrWidth int         `yaml:"addr_width"` // default 32
	DataWidth int         `yaml:"data_width"` // default 32

	// Memory completion inputs of the terminator; defaults to the number of
	// master memory interfaces in the circuit.
	MemDone *int `yaml:"mem_done"`
}

// GroupDecl declares one basic block's contribution to a memory interface.
type GroupDecl struct {
	Control  bool     `yaml:"control"`
	Accesses []string `yaml:"accesses"` // "load" or "store", in program order
}

// Parse decodes a description and checks its format version against
// DefaultFormatConstraint.
func Parse(data []byte) (*File, error) {
	return ParseWithConstraint(data, DefaultFormatConstraint)
}

// ParseWithConstraint decodes a description and checks its format version
// against the given semver range.
func ParseWithConstraint(data []byte, constraint string) (*File, error) {
	rng, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("circuitdesc: invalid format constraint %q: %w", constraint, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("circuitdesc: decode description: %w", err)
	}
	if f.FormatVersion == "" {
		return nil, fmt.Errorf("circuitdesc: description has no format_version")
	}
	version, err := semver.NewVersion(f.FormatVersion)
	if err != nil {
		return nil, fmt.Errorf("circuitdesc: invalid format_version %q: %w", f.FormatVersion, err)
	}
	if !rng.Check(version) {
		return nil, fmt.Errorf("circuitdesc: format_version %s outside supported range %s", version, constraint)
	}
	return &f, nil
}

// Load reads and parses a description file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("circuitdesc: read %s: %w", path, err)
	}
	return Parse(data)
}

func (d PortDecl) valueType() (handshake.Type, error) {
	switch d.Type {
	case "ctrl", "control":
		return handshake.ControlType(), nil
	case "memref":
		return handshake.MemRefType(), nil
	case "", "channel":
		width := d.Width
		if width == 0 {
			width = 32
		}
		return handshake.ChannelType(width), nil
	default:
		return handshake.Type{}, fmt.Errorf("circuitdesc: unknown port type %q", d.Type)
	}
}
