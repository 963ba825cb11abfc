package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram() Program {
	return NewProgram([]LabeledInstr{
		{Label: "top", Instr: Assign{Dst: "r1", Expr: Const(1)}, Index: 0},
		{Instr: Store{Mode: Rlx, Src: "r1", Loc: "mA"}, Index: 1},
		{Instr: Load{Mode: Acq, Dst: "r2", Loc: "mB"}, Index: 2},
		{Instr: IfGoto{Cond: "r2", Target: "top"}, Index: 3},
	})
}

func TestProgramAccessors(t *testing.T) {
	p := sampleProgram()

	assert.Equal(t, 4, p.Len())
	assert.Equal(t, "top: r1 = 1", p.At(0).String())
	assert.Equal(t, "store RLX r1 #mA", p.At(1).String())
	assert.Equal(t, "load ACQ #mB r2", p.At(2).String())
	assert.Equal(t, "if r2 goto top", p.At(3).String())
}

func TestResolveLabel(t *testing.T) {
	p := sampleProgram()

	i, err := p.ResolveLabel(0, "top")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = p.ResolveLabel(2, "missing")
	var ule *UnknownLabelError
	require.ErrorAs(t, err, &ule)
	assert.Equal(t, 2, ule.Thread)
	assert.Equal(t, "missing", ule.Label)
}

func TestDuplicateLabelKeepsFirst(t *testing.T) {
	p := NewProgram([]LabeledInstr{
		{Label: "l", Instr: Assign{Dst: "r1", Expr: Const(1)}, Index: 0},
		{Label: "l", Instr: Assign{Dst: "r1", Expr: Const(2)}, Index: 1},
	})
	i, err := p.ResolveLabel(0, "l")
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestLocations(t *testing.T) {
	p := sampleProgram()
	assert.Equal(t, []LocID{"mA", "mB"}, p.Locations())
}

func TestIsMemoryAccess(t *testing.T) {
	assert.True(t, IsMemoryAccess(Load{}))
	assert.True(t, IsMemoryAccess(Store{}))
	assert.False(t, IsMemoryAccess(Assign{}))
	assert.False(t, IsMemoryAccess(IfGoto{}))
}
