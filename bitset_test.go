package keybus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitsetBanks(t *testing.T) {
	b := NewBitset(Zones)

	// zone 9 is bank 1 bit 0, zone 64 is bank 7 bit 7
	require.True(t, b.Set(9, true))
	require.True(t, b.Set(64, true))
	require.Equal(t, byte(0x01), b.bits[1])
	require.Equal(t, byte(0x80), b.bits[7])
	require.True(t, b.Get(9))
	require.True(t, b.Get(64))
	require.False(t, b.Get(10))
}

func TestBitsetChangeTracking(t *testing.T) {
	b := NewBitset(Zones)

	require.False(t, b.AnyChanged())
	require.True(t, b.Set(3, true))
	require.True(t, b.Changed(3))
	require.True(t, b.AnyChanged())

	// setting the same value again does not re-mark
	b.ClearChanged(3)
	require.False(t, b.Set(3, true))
	require.False(t, b.Changed(3))
	require.False(t, b.AnyChanged())

	// flipping back marks again
	require.True(t, b.Set(3, false))
	require.True(t, b.Changed(3))
}

func TestBitsetEachChanged(t *testing.T) {
	b := NewBitset(Zones)
	b.Set(1, true)
	b.Set(9, true)
	b.Set(64, true)
	b.Set(64, false) // still changed, value restored

	var got []int
	var vals []bool
	b.EachChanged(func(n int, on bool) {
		got = append(got, n)
		vals = append(vals, on)
	})
	require.Equal(t, []int{1, 9, 64}, got)
	require.Equal(t, []bool{true, true, false}, vals)
}

func TestBitsetOutOfRange(t *testing.T) {
	b := NewBitset(PGMOutputs)
	require.False(t, b.Set(0, true))
	require.False(t, b.Set(15, true))
	require.False(t, b.Get(15))
	require.False(t, b.AnyChanged())
}
