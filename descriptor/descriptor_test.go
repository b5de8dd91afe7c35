package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := &Chain{}
	require.NoError(t, c.Add(IDDriverDescriptor, []byte{0x01, 0x00, 0x10, 'n', 'a', 'm', 'e', 0}))
	require.NoError(t, c.Add(IDDriverCommon, make([]byte, 40)))

	encoded := c.Encode()
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Blocks, 2)
	require.Equal(t, IDDriverDescriptor, decoded.Blocks[0].ID)
	require.Equal(t, 40, len(decoded.Blocks[1].Payload))
}

func TestAddRejectsOversizedNonTableBlock(t *testing.T) {
	c := &Chain{}
	err := c.Add(IDDriverCommon, make([]byte, 300))
	require.Error(t, err)
}

func TestAddSplitsOversizedTableBlockAcrossContinuations(t *testing.T) {
	c := &Chain{}
	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, c.Add(IDDriverTables, payload))
	require.Len(t, c.Blocks, 3)
	require.Equal(t, 255, len(c.Blocks[0].Payload))
	require.Equal(t, 255, len(c.Blocks[1].Payload))
	require.Equal(t, 90, len(c.Blocks[2].Payload))

	encoded := c.Encode()
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Blocks, 3)

	var reassembled []byte
	for _, b := range decoded.Blocks {
		reassembled = append(reassembled, b.Payload...)
	}
	require.Equal(t, payload, reassembled)
}

func TestDecodeStopsAtTerminator(t *testing.T) {
	c := &Chain{}
	require.NoError(t, c.Add(IDMusicData, []byte{1, 2, 3}))
	encoded := append(c.Encode(), 0xAA, 0xBB) // trailing garbage past terminator

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Blocks, 1)
}
