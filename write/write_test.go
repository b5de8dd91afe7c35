package write

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidforge/laxity2sf2/descriptor"
)

func TestEmitOrdersSectionsAsSpecified(t *testing.T) {
	chain := &descriptor.Chain{}
	require.NoError(t, chain.Add(descriptor.IDMusicData, []byte{1, 2, 3}))

	in := Input{
		LoadAddress: 0x2000,
		DriverCode:  []byte{0xEA, 0xEA, 0x00, 0x00},
		MagicOffset: 2,
		Chain:       chain,
		Tables: Tables{
			Instruments: []byte{0xAA},
			Wavetable:   []byte{0xBB},
		},
	}

	out := Emit(in)

	require.Equal(t, uint16(0x2000), binary.LittleEndian.Uint16(out[0:2]))
	require.Equal(t, byte(0xEA), out[2])
	require.Equal(t, uint16(0x1337), binary.LittleEndian.Uint16(out[4:6]))

	instOffset := 2 + len(in.DriverCode) + len(chain.Encode())
	require.Equal(t, byte(0xAA), out[instOffset])
	require.Equal(t, byte(0xBB), out[instOffset+1])
}
