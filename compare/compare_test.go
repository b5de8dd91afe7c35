package compare

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidforge/laxity2sf2/cpu6502"
)

func TestSparseFrameComparatorIgnoresKeysPresentOnlyOnOneSide(t *testing.T) {
	f1 := Frame{0x00: 0x22, 0x01: 0x01, 0x04: 0x20}
	f2 := Frame{0x00: 0x22, 0x01: 0x01, 0x04: 0x20, 0x02: 0x00}

	require.True(t, Match(f1, f2))
}

func TestSparseFrameComparatorCatchesRealMismatch(t *testing.T) {
	f1 := Frame{0x00: 0x22}
	f2 := Frame{0x00: 0x23}

	require.False(t, Match(f1, f2))
}

func TestDisjointKeySetsVacuouslyMatch(t *testing.T) {
	f1 := Frame{0x00: 0x01}
	f2 := Frame{0x01: 0x02}

	require.True(t, Match(f1, f2))
}

func TestFramesBucketsWritesByFrameNumber(t *testing.T) {
	writes := []cpu6502.SIDWrite{
		{Addr: 0xD400, Value: 0x10, Frame: 0},
		{Addr: 0xD401, Value: 0x20, Frame: 0},
		{Addr: 0xD400, Value: 0x11, Frame: 1},
	}

	frames := Frames(writes)
	require.Len(t, frames, 2)
	require.Equal(t, Frame{0xD400: 0x10, 0xD401: 0x20}, frames[0])
	require.Equal(t, Frame{0xD400: 0x11}, frames[1])
}

func TestCompareRatioForIdenticalSequences(t *testing.T) {
	frames := []Frame{{0xD400: 1}, {0xD400: 2}}
	require.Equal(t, 1.0, Ratio(frames, frames))
}

func TestCompareFlagsFirstMismatch(t *testing.T) {
	a := []Frame{{0xD400: 1}, {0xD400: 2}, {0xD400: 3}}
	b := []Frame{{0xD400: 1}, {0xD400: 9}, {0xD400: 3}}

	result := Compare(a, b)
	require.Equal(t, 1, result.FirstMismatch)
	require.InDelta(t, 2.0/3.0, result.Ratio, 0.0001)
}
