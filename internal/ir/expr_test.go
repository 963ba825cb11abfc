package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpApply(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		lhs  Value
		rhs  Value
		want Value
	}{
		{"add", OpAdd, 2, 3, 5},
		{"sub negative", OpSub, 2, 5, -3},
		{"mul", OpMul, -4, 3, -12},
		{"div truncates", OpDiv, 7, 2, 3},
		{"div negative", OpDiv, -7, 2, -3},
		{"mod", OpMod, 7, 3, 1},
		{"eq true", OpEq, 5, 5, 1},
		{"eq false", OpEq, 5, 6, 0},
		{"ne", OpNe, 5, 6, 1},
		{"lt", OpLt, -1, 0, 1},
		{"le equal", OpLe, 3, 3, 1},
		{"gt false", OpGt, 3, 3, 0},
		{"ge", OpGe, 4, 3, 1},
		{"and both nonzero", OpAnd, 2, -1, 1},
		{"and one zero", OpAnd, 2, 0, 0},
		{"or one nonzero", OpOr, 0, 7, 1},
		{"or both zero", OpOr, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Apply(tt.lhs, tt.rhs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpApplyDivideByZero(t *testing.T) {
	for _, op := range []Op{OpDiv, OpMod} {
		_, err := op.Apply(1, 0)
		assert.ErrorIs(t, err, ErrDivideByZero, "op %s", op)
	}
}

func TestEvalExpr(t *testing.T) {
	regs := func(r RegID) Value {
		switch r {
		case "r1":
			return 10
		case "r2":
			return 3
		default:
			return 0 // uninitialized registers read as the machine default
		}
	}

	tests := []struct {
		name string
		expr Expr
		want Value
	}{
		{"const", Const(42), 42},
		{"register", RegRef("r1"), 10},
		{"uninitialized register", RegRef("r99"), 0},
		{"binop", BinExpr{Op: OpSub, LHS: "r1", RHS: "r2"}, 7},
		{"binop uninitialized operand", BinExpr{Op: OpAdd, LHS: "r1", RHS: "r9"}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalExpr(tt.expr, regs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalExprDivideByZero(t *testing.T) {
	regs := func(RegID) Value { return 0 }
	_, err := EvalExpr(BinExpr{Op: OpDiv, LHS: "r1", RHS: "r2"}, regs)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestParseOp(t *testing.T) {
	for op, name := range map[Op]string{
		OpAdd: "+", OpMod: "%", OpNe: "!=", OpLe: "<=", OpAnd: "&&",
	} {
		got, err := ParseOp(name)
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	_, err := ParseOp("<<")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want AccessMode
	}{
		{"RLX", Rlx},
		{"rel", Rel},
		{"Acq", Acq},
		{"sc", SeqCst},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMode("SEQ_CST")
	assert.Error(t, err)
}

func TestModeStrength(t *testing.T) {
	assert.True(t, Rel.ReleaseLike())
	assert.True(t, SeqCst.ReleaseLike())
	assert.False(t, Acq.ReleaseLike())
	assert.True(t, Acq.AcquireLike())
	assert.True(t, SeqCst.AcquireLike())
	assert.False(t, Rel.AcquireLike())
	assert.False(t, Rlx.ReleaseLike())
	assert.False(t, Rlx.AcquireLike())
}
