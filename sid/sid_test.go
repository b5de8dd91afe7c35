package sid

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSID(magic string, loadAddr, initAddr, playAddr uint16, embedLoad bool) []byte {
	dataOffset := uint16(0x7C)
	prog := []byte{0x60, 0x60, 0x60, 0x60}
	body := prog
	load := loadAddr
	if embedLoad {
		load = 0
		header := make([]byte, 2)
		binary.LittleEndian.PutUint16(header, loadAddr)
		body = append(header, prog...)
	}

	data := make([]byte, int(dataOffset)+len(body))
	copy(data[0x00:], magic)
	binary.BigEndian.PutUint16(data[0x04:], 2)
	binary.BigEndian.PutUint16(data[0x06:], dataOffset)
	binary.BigEndian.PutUint16(data[0x08:], load)
	binary.BigEndian.PutUint16(data[0x0A:], initAddr)
	binary.BigEndian.PutUint16(data[0x0C:], playAddr)
	binary.BigEndian.PutUint16(data[0x0E:], 1)
	binary.BigEndian.PutUint16(data[0x10:], 1)
	copy(data[0x16:0x36], "Test Song\x00")
	copy(data[0x36:0x56], "Test Author\x00")
	copy(data[0x56:0x76], "2026\x00")
	binary.BigEndian.PutUint16(data[0x76:0x78], 0x0002) // PAL, MOS6581
	copy(data[dataOffset:], body)
	return data
}

func TestParsePSIDWithExplicitLoadAddress(t *testing.T) {
	data := buildSID("PSID", 0x1000, 0x1000, 0x1004, false)

	f, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1000), f.Header.LoadAddress)
	require.Equal(t, uint16(0x1004), f.Header.PlayAddress)
	require.Equal(t, "Test Song", f.Header.Name)
	require.Empty(t, f.Warnings)
	require.Equal(t, byte(0x60), f.Image.Bytes[0x1000])
	require.Equal(t, uint16(0x0002), f.Header.Flags)
}

func TestParseRSIDWithEmbeddedLoadAddress(t *testing.T) {
	data := buildSID("RSID", 0x0900, 0x0900, 0x0903, true)

	f, err := Parse(data)
	require.NoError(t, err)
	require.True(t, f.Header.IsRSID)
	require.Equal(t, uint16(0x0900), f.Header.LoadAddress)
	require.Equal(t, byte(0x60), f.Image.Bytes[0x0900])
}

func TestParseRejectsUnrecognisedMagic(t *testing.T) {
	data := buildSID("PSID", 0x1000, 0x1000, 0x1004, false)
	copy(data[0:4], "XXXX")

	_, err := Parse(data)
	require.Error(t, err)
}

func TestParseWarnsOnNonPrintableTextInsteadOfFailing(t *testing.T) {
	data := buildSID("PSID", 0x1000, 0x1000, 0x1004, false)
	copy(data[0x16:0x36], []byte{0x81, 0x82, 'O', 'K', 0})

	f, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "??OK", f.Header.Name)
	require.Len(t, f.Warnings, 1)
}
