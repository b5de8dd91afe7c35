package reloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidforge/laxity2sf2/memimage"
)

func TestRelocationOfOddAddressedPointer(t *testing.T) {
	img := memimage.New()
	// JMP $1234 (3 bytes: 4C 34 12)
	img.Bytes[0x1000] = 0x4C
	img.WriteWord(0x1001, 0x1234)
	// LDA $1200,X (3 bytes: BD 00 12), starting at the odd offset $1003 —
	// a stride-2 scanner starting at $1000 would step 1000,1002,1004...
	// and never land on $1003.
	img.Bytes[0x1003] = 0xBD
	img.WriteWord(0x1004, 0x1200)
	require.NoError(t, img.MarkCodeRange(0x1000, 6))

	warnings, err := Relocate(img, 0x1000, 0x1282)
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, []byte{0x4C, 0xB6, 0x14, 0xBD, 0x82, 0x14}, img.Bytes[0x1000:0x1006])
}

func TestDataNotScannedAsCode(t *testing.T) {
	img := memimage.New()
	img.Bytes[0x1900] = 0x6C // matches JMP (abs) opcode byte
	img.WriteWord(0x1901, 0x2050)
	require.NoError(t, img.MarkDataRange(0x1900, 3))

	before := append([]byte(nil), img.Bytes[0x1900:0x1903]...)

	warnings, err := Relocate(img, 0x1000, 0x2000)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, before, img.Bytes[0x1900:0x1903])
}

func TestRelocationInvarianceAtZeroDelta(t *testing.T) {
	img := memimage.New()
	img.Bytes[0x1000] = 0x4C
	img.WriteWord(0x1001, 0x1500)
	require.NoError(t, img.MarkCodeRange(0x1000, 3))

	before := append([]byte(nil), img.Bytes[:]...)

	_, err := Relocate(img, 0x1000, 0x1000)
	require.NoError(t, err)
	require.Equal(t, before, img.Bytes[:])
}

func TestTwoStepRelocationEqualsOneStepOfTheSum(t *testing.T) {
	build := func() *memimage.Image {
		img := memimage.New()
		img.Bytes[0x2000] = 0x8D
		img.WriteWord(0x2001, 0x3000)
		require.NoError(t, img.MarkCodeRange(0x2000, 3))
		return img
	}

	twoStep := build()
	_, err := Relocate(twoStep, 0x1000, 0x1100)
	require.NoError(t, err)
	_, err = Relocate(twoStep, 0x1100, 0x1300)
	require.NoError(t, err)

	oneStep := build()
	_, err = Relocate(oneStep, 0x1000, 0x1300)
	require.NoError(t, err)

	require.Equal(t, oneStep.Bytes[:], twoStep.Bytes[:])
}

func TestRelocationNeverTouchesIOOrROMOperands(t *testing.T) {
	img := memimage.New()
	img.Bytes[0x1000] = 0x8D // STA abs
	img.WriteWord(0x1001, 0xD418)
	require.NoError(t, img.MarkCodeRange(0x1000, 3))

	_, err := Relocate(img, 0x1000, 0x2000)
	require.NoError(t, err)
	require.Equal(t, uint16(0xD418), img.ReadWord(0x1001))
}

func TestRelocationPreservesOpcodeBytes(t *testing.T) {
	img := memimage.New()
	img.Bytes[0x1000] = 0x4C
	img.WriteWord(0x1001, 0x1100)
	require.NoError(t, img.MarkCodeRange(0x1000, 3))

	_, err := Relocate(img, 0x1000, 0x1500)
	require.NoError(t, err)
	require.Equal(t, byte(0x4C), img.Bytes[0x1000])
}

func TestZeroPageOperandsNeverRelocate(t *testing.T) {
	img := memimage.New()
	img.Bytes[0x1000] = 0xA5 // LDA zp (2 bytes, never relocatable: Length != 3)
	img.Bytes[0x1001] = 0x10
	require.NoError(t, img.MarkCodeRange(0x1000, 2))

	_, err := Relocate(img, 0x1000, 0x2000)
	require.NoError(t, err)
	require.Equal(t, byte(0x10), img.Bytes[0x1001])
}
