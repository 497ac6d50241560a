// Package pcode implements the compiled expression sublanguage (spec §4.2):
// a small stack machine that evaluates one Datum per row. Expression trees
// (package lop) are compiled once, at lowering time, into a straight-line
// PCode; evaluation never touches the tree again.
package pcode

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/row"
)

// Op is a PCode opcode.
type Op uint8

const (
	OpPushLit Op = iota
	OpPushReg
	OpRel
	OpLog
	OpArith
	OpReturn
)

// Instruction is one PCode instruction. Only the operand matching Op is
// meaningful; the rest are zero.
type Instruction struct {
	Op     Op
	Lit    row.Datum
	Reg    ids.RegisterId
	RelOp  lop.RelOp
	LogOp  lop.LogOp
	Arith  lop.ArithOp
}

// PCode is a compiled, straight-line instruction sequence. It is
// byte-serializable (spec §5's "serialization contract") and carries no
// reference back to the expression tree it was compiled from.
type PCode struct {
	Instructions []Instruction `msgpack:"instructions"`
}

func New() *PCode { return &PCode{} }

// SoleRegister reports the register a PCode reads when it is exactly
// `PushReg(r); Return` — the shape Compile produces for a bare lop.Column
// expression. Aggregation uses this to recover the register a compiled
// grouping-key expression targets, so it can write the group's key value
// back to the same place downstream operators already expect it.
func (p *PCode) SoleRegister() (ids.RegisterId, bool) {
	if len(p.Instructions) != 2 || p.Instructions[0].Op != OpPushReg || p.Instructions[1].Op != OpReturn {
		return 0, false
	}
	return p.Instructions[0].Reg, true
}

func (p *PCode) pushLit(d row.Datum)         { p.Instructions = append(p.Instructions, Instruction{Op: OpPushLit, Lit: d}) }
func (p *PCode) pushReg(r ids.RegisterId)    { p.Instructions = append(p.Instructions, Instruction{Op: OpPushReg, Reg: r}) }
func (p *PCode) rel(op lop.RelOp)            { p.Instructions = append(p.Instructions, Instruction{Op: OpRel, RelOp: op}) }
func (p *PCode) log(op lop.LogOp)            { p.Instructions = append(p.Instructions, Instruction{Op: OpLog, LogOp: op}) }
func (p *PCode) arith(op lop.ArithOp)        { p.Instructions = append(p.Instructions, Instruction{Op: OpArith, Arith: op}) }
func (p *PCode) ret()                        { p.Instructions = append(p.Instructions, Instruction{Op: OpReturn}) }
