package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adarshpannu/flare/ids"
)

func TestGetIDIsIdempotent(t *testing.T) {
	a := New()
	qc := ids.QunCol{Qun: 0, Col: 3}

	first := a.GetID(qc)
	second := a.GetID(qc)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, a.Width())
}

func TestGetIDAssignsInOrderOfFirstSight(t *testing.T) {
	a := New()
	qc0 := ids.QunCol{Qun: 0, Col: 0}
	qc1 := ids.QunCol{Qun: 0, Col: 1}
	qc2 := ids.QunCol{Qun: 1, Col: 0}

	id0 := a.GetID(qc0)
	id1 := a.GetID(qc1)
	id2 := a.GetID(qc2)

	assert.Equal(t, ids.RegisterId(0), id0)
	assert.Equal(t, ids.RegisterId(1), id1)
	assert.Equal(t, ids.RegisterId(2), id2)

	// Revisiting qc0 returns its original id, not a fourth.
	assert.Equal(t, id0, a.GetID(qc0))
	assert.Equal(t, 3, a.Width())
}

func TestNewRegisterIncrementsWidthWithoutAQunCol(t *testing.T) {
	a := New()
	qc := ids.QunCol{Qun: 0, Col: 0}
	a.GetID(qc)

	synthetic := a.NewRegister()
	assert.Equal(t, ids.RegisterId(1), synthetic)
	assert.Equal(t, 2, a.Width())

	// A second GetID of the same QunCol still returns the original register,
	// never colliding with the synthetic one.
	assert.Equal(t, ids.RegisterId(0), a.GetID(qc))
}

func TestAllocated(t *testing.T) {
	a := New()
	qc := ids.QunCol{Qun: 0, Col: 0}
	id := a.GetID(qc)
	synthetic := a.NewRegister()

	assert.True(t, a.Allocated(id))
	assert.True(t, a.Allocated(synthetic))
	assert.False(t, a.Allocated(a.nextID))
}
