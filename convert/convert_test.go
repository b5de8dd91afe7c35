package convert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sidforge/laxity2sf2/seqdecode"
)

func TestWavetableByteSwap(t *testing.T) {
	out := ConvertWavetable([]WavetableEntry{{NoteControl: 0x00, Waveform: 0x21}})
	require.Equal(t, [2]byte{0x21, 0x00}, out[0])
}

func TestWavetableStopRewrittenToJumpToSelf(t *testing.T) {
	out := ConvertWavetable([]WavetableEntry{
		{NoteControl: 0x10, Waveform: 0x41},
		{NoteControl: waveStop, Waveform: 0x00},
	})
	require.Equal(t, [2]byte{byte(1), byte(waveJump)}, out[1])
}

func TestPulseIndexScaling(t *testing.T) {
	out, warnings := ConvertPulseTable([]PulseEntry{
		{Initial: 0x80, Delta: 0x00, DurationDirection: 0x10, NextIndexTimesFour: 0x18},
	})
	require.Empty(t, warnings)
	require.Equal(t, PulseEntry{Initial: 0x80, Delta: 0x00, DurationDirection: 0x10, NextIndexTimesFour: 0x06}, out[0])
}

func TestPulseUnalignedIndexPassesThroughWithWarning(t *testing.T) {
	out, warnings := ConvertPulseTable([]PulseEntry{
		{NextIndexTimesFour: 0x19},
	})
	require.Len(t, warnings, 1)
	require.Equal(t, byte(0x19), out[0].NextIndexTimesFour)
}

func TestPulseIndexRoundTrip(t *testing.T) {
	const x = 0x18
	scaled, warnings := ConvertPulseTable([]PulseEntry{{NextIndexTimesFour: x}})
	require.Empty(t, warnings)
	require.Equal(t, byte(x/4), scaled[0].NextIndexTimesFour)
	require.Equal(t, byte(x), scaled[0].NextIndexTimesFour*4)
}

func TestFilterCutoffScaling(t *testing.T) {
	out, warnings := ConvertFilterTable([]FilterEntry{{Cutoff: 0x10, NextIndex: 0x04}})
	require.Empty(t, warnings)
	scaled := uint16(out[0].CutoffHigh8)<<3 | uint16(out[0].CutoffLow3)
	require.Equal(t, uint16(0x10)*8, scaled)
	require.Equal(t, byte(1), out[0].NextIndex)
}

func TestInstrumentZeroRestartFlagsYieldsZeroFlagByteUnlessFiltered(t *testing.T) {
	// 8-byte row: ad, sr, restart=0, filterByte=0, filterPtr=0, pulsePtr, pulseProp, wavePtr
	row := []byte{0x0F, 0xF0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	out := ConvertInstruments(row, 1)
	flags := out[2*1+0]
	require.Equal(t, byte(0), flags)
}

func TestInstrumentWithFilterPtrSetsFilterBit(t *testing.T) {
	row := []byte{0x0F, 0xF0, 0x00, 0x00, 0x20, 0x00, 0x00, 0x00}

	out := ConvertInstruments(row, 1)
	flags := out[2*1+0]
	require.Equal(t, byte(targetFilterBit), flags)
}

func TestConvertSequenceEventsUsesUnchangedSentinels(t *testing.T) {
	events := []seqdecode.Event{
		{Instrument: seqdecode.NoChange, Command: seqdecode.NoChange, Sustain: true},
		{Instrument: 2, Command: seqdecode.NoChange, Note: 0x0C},
	}

	rows := ConvertSequenceEvents(events)
	require.True(t, rows[0].Sustain)
	require.Equal(t, byte(unchangedSentinel), rows[0].Instrument)
	require.Equal(t, byte(2), rows[1].Instrument)
	require.Equal(t, byte(unchangedSentinel), rows[1].Command)
}

func TestConvertOrdersCopiesUnchanged(t *testing.T) {
	in := []OrderEntry{{Transpose: 0xA0, SequenceIndex: 3}}
	out := ConvertOrders(in)
	require.Equal(t, in, out)

	out[0].SequenceIndex = 99
	require.Equal(t, byte(3), in[0].SequenceIndex, "must not alias source slice")
}

func TestValidateWavePointerRejectsOutOfRange(t *testing.T) {
	err := ValidateWavePointer(10, 8)
	require.Error(t, err)
}
