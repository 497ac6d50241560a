package pcode

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/regalloc"
)

// Compile walks expr bottom-up and emits a PCode, per spec §4.2. Column
// references are resolved through alloc, which assigns (or reuses) a
// RegisterId for the (qun, col) pair — the only point where expression
// compilation and register allocation meet.
func Compile(expr lop.Expr, alloc *regalloc.Allocator) *PCode {
	p := New()
	compileInto(p, expr, alloc)
	p.ret()
	return p
}

func compileInto(p *PCode, expr lop.Expr, alloc *regalloc.Allocator) {
	switch e := expr.(type) {
	case lop.Column:
		reg := alloc.GetID(ids.QunCol{Qun: e.Qun, Col: e.Col})
		p.pushReg(reg)
	case lop.Literal:
		p.pushLit(e.Value)
	case lop.Rel:
		compileInto(p, e.LHS, alloc)
		compileInto(p, e.RHS, alloc)
		p.rel(e.Op)
	case lop.Log:
		for _, operand := range e.Operands {
			compileInto(p, operand, alloc)
		}
		p.log(e.Op)
	case lop.Arith:
		compileInto(p, e.LHS, alloc)
		compileInto(p, e.RHS, alloc)
		p.arith(e.Op)
	}
}

// CompilePredicates compiles one PCode per predicate (spec §4.4 step 3).
// Returns nil if preds is empty, matching the original's Option<Vec<PCode>>.
func CompilePredicates(preds []lop.Expr, alloc *regalloc.Allocator) []*PCode {
	if len(preds) == 0 {
		return nil
	}
	out := make([]*PCode, len(preds))
	for i, pred := range preds {
		out[i] = Compile(pred, alloc)
	}
	return out
}

// CompileEmitCols compiles one PCode per emit column. Returns nil if
// emitcols is nil, preserving the "output_map xor emitcols" distinction
// lowering relies on (spec §4.4 step 4, Repartition).
func CompileEmitCols(emitcols []lop.EmitCol, alloc *regalloc.Allocator) []*PCode {
	if emitcols == nil {
		return nil
	}
	out := make([]*PCode, len(emitcols))
	for i, ec := range emitcols {
		out[i] = Compile(ec.Expr, alloc)
	}
	return out
}
