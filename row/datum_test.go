package row

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatum(t *testing.T) {
	tests := []struct {
		field string
		typ   DataType
		want  Datum
	}{
		{"1", TypeInt, NewInt(1)},
		{"-7", TypeInt, NewInt(-7)},
		{"x", TypeStr, NewStr("x")},
		{"", TypeStr, NewStr("")},
		{"true", TypeBool, NewBool(true)},
		{"false", TypeBool, NewBool(false)},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s/%v", test.field, test.typ), func(t *testing.T) {
			got, err := ParseDatum(test.field, test.typ)
			require.NoError(t, err)
			assert.True(t, got.GroupEqual(test.want))
		})
	}
}

func TestParseDatumError(t *testing.T) {
	_, err := ParseDatum("not-a-number", TypeInt)
	require.Error(t, err)
}

func TestDatumCompare(t *testing.T) {
	lt, err := NewInt(1).Compare(NewInt(2))
	require.NoError(t, err)
	assert.Negative(t, lt)

	eq, err := NewStr("a").Compare(NewStr("a"))
	require.NoError(t, err)
	assert.Zero(t, eq)

	_, err = NewInt(1).Compare(NewStr("a"))
	require.Error(t, err)
}

// NULL grouping keys form their own group: two NULLs are GroupEqual even
// though ordering a NULL against anything is a type mismatch (spec §9 Open
// Question resolution).
func TestDatumGroupEqualNull(t *testing.T) {
	assert.True(t, Null().GroupEqual(Null()))
	assert.False(t, Null().GroupEqual(NewInt(0)))

	_, err := Null().Compare(NewInt(0))
	require.Error(t, err)
}

func TestRowEncodeFields(t *testing.T) {
	r := RowOf(NewInt(1), NewStr("x"))
	assert.Equal(t, "1|x", r.EncodeFields('|'))
}

func TestRowCloneIsIndependent(t *testing.T) {
	r := RowOf(NewInt(1))
	c := r.Clone()
	c.SetColumn(0, NewInt(2))
	got, _ := r.GetColumn(0).Int()
	assert.Equal(t, int64(1), got)
}
