package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weft/internal/ir"
)

func buildDOTFixture() *Graph {
	g := New()
	w := g.Append(Event{Thread: 0, Kind: KindWrite, Loc: "mX", Value: 9, Mode: ir.Rel})
	pw := g.Append(Event{Thread: 0, Kind: KindPropagatedWrite, Loc: "mX", Value: 9, Mode: ir.Rel, Origin: w})
	r := g.Append(Event{Thread: 1, Kind: KindRead, Loc: "mX", Value: 9, Mode: ir.Acq})
	g.AddPO(w, pw)
	g.AppendMO(w)
	g.AddRF(w, r)
	return g
}

func renderDOT(t *testing.T, g *Graph) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, g.WriteDOT(&buf))
	return buf.String()
}

func TestWriteDOTStructure(t *testing.T) {
	out := renderDOT(t, buildDOTFixture())

	assert.True(t, strings.HasPrefix(out, "digraph execution {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))

	// One cluster per thread.
	assert.Contains(t, out, `label="Thread 0";`)
	assert.Contains(t, out, `label="Thread 1";`)

	// Node labels carry id, thread, kind and value.
	assert.Contains(t, out, `e0 [label="e0: T0 W(REL)mX=9"];`)
	assert.Contains(t, out, `e1 [label="e1: T0 PropW mX=9"];`)
	assert.Contains(t, out, `e2 [label="e2: T1 R(ACQ)mX=9"];`)

	// Edge styling by kind.
	assert.Contains(t, out, `e0 -> e1 [label="po" style=solid];`)
	assert.Contains(t, out, `e0 -> e2 [label="rf" style=dashed];`)
	assert.Contains(t, out, `e0 -> e2 [label="sw" style=dotted];`)
	assert.NotContains(t, out, `label="fr"`)
}

func TestWriteDOTDeterministic(t *testing.T) {
	a := renderDOT(t, buildDOTFixture())
	b := renderDOT(t, buildDOTFixture())
	assert.Equal(t, a, b)
}
