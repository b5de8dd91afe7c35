package cpu6502

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupKnownAndUnknown(t *testing.T) {
	t.Run("known", func(t *testing.T) {
		op := Lookup(0xA9)
		require.NotNil(t, op)
		require.Equal(t, "LDA", op.Name)
		require.Equal(t, 2, op.Length)
		require.Equal(t, Immediate, op.Mode)
	})

	t.Run("illegal opcode", func(t *testing.T) {
		require.Nil(t, Lookup(0x02))
	})
}

func TestRelocatableModes(t *testing.T) {
	cases := []struct {
		mode AddressingMode
		want bool
	}{
		{Absolute, true},
		{AbsoluteX, true},
		{AbsoluteY, true},
		{Indirect, true},
		{IndirectX, false},
		{IndirectY, false},
		{ZeroPage, false},
		{Relative, false},
		{Immediate, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.mode.Relocatable(), "mode %v", c.mode)
	}
}

func TestCPUStoreAbsoluteWritesSIDRegister(t *testing.T) {
	var mem [0x10000]byte
	// LDA #$0F ; STA $D418 (volume register) ; RTS
	code := []byte{0xA9, 0x0F, 0x8D, 0x18, 0xD4, 0x60}
	copy(mem[0x1000:], code)

	cpu := NewCPU(&mem)
	cpu.Call(0x1000)

	require.Len(t, cpu.SIDWrites, 1)
	require.Equal(t, SIDWrite{Addr: 0xD418, Value: 0x0F, Frame: 0}, cpu.SIDWrites[0])
}

func TestCPUBranchAndLoop(t *testing.T) {
	var mem [0x10000]byte
	// LDX #$03 ; loop: DEX ; BNE loop ; RTS
	code := []byte{0xA2, 0x03, 0xCA, 0xD0, 0xFD, 0x60}
	copy(mem[0x2000:], code)

	cpu := NewCPU(&mem)
	cpu.Call(0x2000)

	require.Equal(t, byte(0), cpu.X)
}

func TestRunFramesAccumulatesAcrossCalls(t *testing.T) {
	var mem [0x10000]byte
	// play: INC $3100 ; LDA $3100 ; STA $D400 ; RTS -- increments a RAM
	// counter and writes it to $D400 each frame, so two frames produce two
	// distinct SID writes.
	code := []byte{0xEE, 0x00, 0x31, 0xAD, 0x00, 0x31, 0x8D, 0x00, 0xD4, 0x60}
	copy(mem[0x3000:], code)

	cpu := NewCPU(&mem)
	writes := cpu.RunFrames(0x3000, 2)

	require.Len(t, writes, 2)
	require.Equal(t, 0, writes[0].Frame)
	require.Equal(t, 1, writes[1].Frame)
	require.Equal(t, byte(1), writes[0].Value)
	require.Equal(t, byte(2), writes[1].Value)
}

func TestSweepMarksCodeAlongBranchesAndCalls(t *testing.T) {
	img := newTestImage()
	// init: JSR $1100 ; RTS
	img.Bytes[0x1000] = 0x20
	img.WriteWord(0x1001, 0x1100)
	img.Bytes[0x1003] = 0x60
	// sub at $1100: LDA #$00 ; BEQ +1 ; NOP ; RTS
	img.Bytes[0x1100] = 0xA9
	img.Bytes[0x1101] = 0x00
	img.Bytes[0x1102] = 0xF0
	img.Bytes[0x1103] = 0x01
	img.Bytes[0x1104] = 0xEA
	img.Bytes[0x1105] = 0x60

	s := NewSweep(img)
	s.From(0x1000)

	require.True(t, img.IsCode(0x1000))
	require.True(t, img.IsCode(0x1100))
	require.True(t, img.IsCode(0x1104))
	require.True(t, img.IsCode(0x1105))
	require.Empty(t, s.Warnings())
}

func TestSweepStopsAtIndirectJump(t *testing.T) {
	img := newTestImage()
	// JMP ($3000)
	img.Bytes[0x1000] = 0x6C
	img.WriteWord(0x1001, 0x3000)

	s := NewSweep(img)
	s.From(0x1000)

	require.True(t, img.IsCode(0x1000))
	require.False(t, img.IsCode(0x3000))
}
