package locate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidforge/laxity2sf2/memimage"
)

func TestLocateOrderListsFindsThreeDistinctVoiceBases(t *testing.T) {
	img := memimage.New()
	bases := [numVoices]uint16{0x5000, 0x5010, 0x5020}

	addr := uint16(0x1000)
	for _, base := range bases {
		placeCode(t, img, addr, opLDAabsX, byte(base), byte(base>>8))
		addr += 3
	}

	for _, base := range bases {
		img.Bytes[base] = 0xA0
		img.Bytes[base+1] = 0x00
		img.Bytes[base+2] = 0xA1
		img.Bytes[base+3] = 0x01
		img.Bytes[base+4] = orderEndOfList
		require.NoError(t, img.MarkDataRange(base, 5))
	}

	got, ok := locateOrderLists(img)
	require.True(t, ok)
	for i, loc := range got {
		require.Equal(t, bases[i], loc.Base)
		require.Equal(t, 2, loc.Count)
	}
}

func TestLocateOrderListsFailsWithFewerThanThreeCandidates(t *testing.T) {
	img := memimage.New()
	bases := [2]uint16{0x5000, 0x5010}

	addr := uint16(0x1000)
	for _, base := range bases {
		placeCode(t, img, addr, opLDAabsX, byte(base), byte(base>>8))
		addr += 3
	}
	for _, base := range bases {
		img.Bytes[base] = 0xA0
		img.Bytes[base+1] = 0x00
		img.Bytes[base+2] = orderEndOfList
		require.NoError(t, img.MarkDataRange(base, 3))
	}

	_, ok := locateOrderLists(img)
	require.False(t, ok)
}

func TestCountOrderEntriesStopsAtTerminator(t *testing.T) {
	img := memimage.New()
	base := uint16(0x7000)
	img.Bytes[base] = 0xA0
	img.Bytes[base+1] = 0x00
	img.Bytes[base+2] = orderEndOfList

	require.Equal(t, 1, countOrderEntries(img, base))
}

func TestCountOrderEntriesHitsHardCapWithoutTerminator(t *testing.T) {
	img := memimage.New()
	base := uint16(0x8000)
	for i := 0; i < maxOrderLen*2; i += 2 {
		img.Bytes[int(base)+i] = 0xA0
		img.Bytes[int(base)+i+1] = 0x00
	}

	require.Equal(t, maxOrderLen, countOrderEntries(img, base))
}

func TestTopDistinctOrdersByScoreThenBase(t *testing.T) {
	candidates := []*Candidate{
		{Base: 0x3000, score: 6},
		{Base: 0x1000, score: 9},
		{Base: 0x2000, score: 9},
		{Base: 0x4000, score: 3},
	}

	got := topDistinct(candidates, 2)
	require.Len(t, got, 2)
	require.ElementsMatch(t, []uint16{0x1000, 0x2000}, []uint16{got[0].Base, got[1].Base})
	require.Less(t, got[0].Base, got[1].Base)
}
