package keytable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMasks(t *testing.T) (shift, alt, control Mask) {
	t.Helper()
	tbl := Default()
	var err error
	shift, err = tbl.Modifier("Shift")
	require.NoError(t, err)
	alt, err = tbl.Modifier("Alt")
	require.NoError(t, err)
	control, err = tbl.Modifier("Control")
	require.NoError(t, err)
	return shift, alt, control
}

func TestEngineMaskBits(t *testing.T) {
	shift, alt, control := defaultMasks(t)

	assert.Equal(t, Mask(1<<0), shift)
	assert.Equal(t, Mask(1<<2), control)
	assert.Equal(t, Mask(1<<3), alt)

	_, err := Default().Modifier("Hyperdrive")
	assert.ErrorIs(t, err, ErrUnsupportedModifier)
}

func TestPrefixMask(t *testing.T) {
	tbl := Default()
	shift, alt, control := defaultMasks(t)

	tests := []struct {
		prefix string
		want   Mask
	}{
		{"s", shift},
		{"S", shift},
		{"a", alt},
		{"M", alt},
		{"c", control},
		{"C", control},
	}
	for _, tt := range tests {
		m, err := tbl.PrefixMask(tt.prefix)
		require.NoError(t, err, tt.prefix)
		assert.Equal(t, tt.want, m, tt.prefix)
	}

	_, err := tbl.PrefixMask("x")
	assert.ErrorIs(t, err, ErrUnsupportedModifier)
}

func TestANSIParam(t *testing.T) {
	tbl := Default()
	shift, alt, control := defaultMasks(t)

	tests := []struct {
		mask Mask
		want int
	}{
		{Null, 1},
		{shift, 2},
		{alt, 3},
		{shift | alt, 4},
		{control, 5},
		{shift | control, 6},
		{alt | control, 7},
		{control | shift | alt, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tbl.ANSIParam(tt.mask), "mask %#x", tt.mask)
	}
}

func TestFromANSIParamInvertsANSIParam(t *testing.T) {
	tbl := Default()
	shift, alt, control := defaultMasks(t)

	got, err := tbl.FromANSIParam(8)
	require.NoError(t, err)
	assert.Equal(t, control|shift|alt, got)

	masks := tbl.ANSIMasks()
	assert.Len(t, masks, 8)
	for _, m := range masks {
		back, err := tbl.FromANSIParam(tbl.ANSIParam(m))
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}

	for _, bad := range []int{0, -3, 9, 100} {
		_, err := tbl.FromANSIParam(bad)
		assert.ErrorIs(t, err, ErrUnsupportedModifier, "param %d", bad)
	}
}

func TestModifierNamesFollowTableOrder(t *testing.T) {
	tbl := Default()
	shift, alt, control := defaultMasks(t)

	assert.Equal(t, []string{"Shift", "Control", "Alt"}, tbl.ModifierNames(alt|control|shift))
	assert.Equal(t, []Mask{shift, control, alt}, tbl.Split(alt|shift|control))
	assert.Nil(t, tbl.ModifierNames(Null))
	assert.True(t, (shift | alt).Has(alt))
	assert.False(t, shift.Has(alt))
	assert.False(t, shift.Has(Null))
	assert.Equal(t, shift|alt|control, tbl.ANSIMask())
}
