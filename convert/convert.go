// Package convert translates located source-format tables into
// target-format blobs. Every function here is a pure function of its
// located input, per §5's concurrency contract — no shared state, nothing
// retained between calls.
//
// Grounded on musclesoft-nin64k/tools/forge/encode/instruments.go's
// column-major packing loop (params read into a flat array, then written
// out at remapped offsets) and transform/row_remap.go's byte-field-remap
// switch (each source field has its own small rewrite rule, expressed as a
// case rather than a table lookup, because the rules aren't uniform).
package convert

import (
	"github.com/sidforge/laxity2sf2/laxerr"
	"github.com/sidforge/laxity2sf2/seqdecode"
)

const (
	instrumentColumns       = 8
	targetInstrumentColumns = 6

	restartHard   = 0x80
	restartOsc    = 0x10
	targetHard    = 0x80
	targetOscBit  = 0x10
	targetFilterBit = 0x40

	colAttackDecay   = 0
	colSustainRel    = 1
	colRestartFlags  = 2
	colFilterByte    = 3
	colFilterPtr     = 4
	colPulsePtr      = 5
	colPulseProperty = 6
	colWavePtr       = 7
)

// ConvertInstruments performs the row-major-to-column-major repack §4.E
// describes: out[c*rowCount+r] = remap(in[r*8+col]) for target columns
// c in 0..5, folding restart_flags into a combined flag byte and
// discarding pulse_property and wave_ptr (Convert validates wave_ptr
// against the wavetable before calling this).
func ConvertInstruments(source []byte, rowCount int) []byte {
	out := make([]byte, targetInstrumentColumns*rowCount)
	for r := 0; r < rowCount; r++ {
		base := r * instrumentColumns
		if base+instrumentColumns > len(source) {
			break
		}
		ad := source[base+colAttackDecay]
		sr := source[base+colSustainRel]
		restart := source[base+colRestartFlags]
		filterByte := source[base+colFilterByte]
		filterPtr := source[base+colFilterPtr]
		pulsePtr := source[base+colPulsePtr]
		wavePtr := source[base+colWavePtr]

		flags := byte(0)
		if restart&restartHard != 0 {
			flags |= targetHard
		}
		if restart&restartOsc != 0 {
			flags |= targetOscBit
		}
		if filterPtr != 0 {
			flags |= targetFilterBit
		}

		out[0*rowCount+r] = ad
		out[1*rowCount+r] = sr
		out[2*rowCount+r] = flags
		out[3*rowCount+r] = filterByte
		out[4*rowCount+r] = filterPtr
		out[5*rowCount+r] = pulsePtr
		_ = wavePtr
	}
	return out
}

// WavetableEntry is a decoded two-byte source entry.
type WavetableEntry struct {
	NoteControl byte
	Waveform    byte
}

const (
	waveStop = 0x7E
	waveJump = 0x7F
)

// ConvertWavetable swaps (note_control, waveform) to (waveform, note)
// per entry, rewriting the source stop marker to the target's
// jump-to-self convention. Applying the swap twice is the identity
// (§8's wavetable byte-swap involution) except for the stop rewrite,
// which is one-directional by design — the target format never emits a
// literal stop marker.
func ConvertWavetable(entries []WavetableEntry) [][2]byte {
	out := make([][2]byte, len(entries))
	for i, e := range entries {
		note := e.NoteControl
		wave := e.Waveform
		if note == waveStop {
			// jump-to-self: target field order is (waveform, note); the
			// waveform slot is reinterpreted as the jump target index
			// when note reads 0x7F.
			out[i] = [2]byte{byte(i), waveJump}
			continue
		}
		out[i] = [2]byte{wave, note}
	}
	return out
}

// PulseEntry is a decoded four-byte source pulse-table entry.
type PulseEntry struct {
	Initial, Delta, DurationDirection, NextIndexTimesFour byte
}

// ConvertPulseTable rewrites the "next index" column from source's ×4
// convention to target's direct convention. Non-aligned values pass
// through unchanged with a warning rather than being rounded, since
// rounding would silently pick a different target entry (§9 open
// question: whether these are corruption or a legitimate variant is left
// unresolved upstream).
func ConvertPulseTable(entries []PulseEntry) ([]PulseEntry, []string) {
	out := make([]PulseEntry, len(entries))
	var warnings []string
	for i, e := range entries {
		out[i] = e
		if e.NextIndexTimesFour%4 != 0 {
			warnings = append(warnings, "convert: pulse entry unaligned next-index not divisible by 4")
			continue
		}
		out[i].NextIndexTimesFour = e.NextIndexTimesFour / 4
	}
	return out, warnings
}

// FilterEntry is a decoded four-byte source filter-table entry.
type FilterEntry struct {
	Cutoff, Step, Duration, NextIndex byte
}

// TargetFilterEntry carries the 11-bit cutoff split the wire format
// expects: 3 low bits and 8 high bits in separate fields.
type TargetFilterEntry struct {
	CutoffLow3  byte
	CutoffHigh8 byte
	NextIndex   byte
}

// ConvertFilterTable flattens each entry's animated sweep to its own
// cutoff value (accepting §9's documented 60-80% fidelity concession
// rather than attempting a sweep approximation) and divides the aligned
// next-index column by 4, same convention as pulse.
func ConvertFilterTable(entries []FilterEntry) ([]TargetFilterEntry, []string) {
	out := make([]TargetFilterEntry, len(entries))
	var warnings []string
	for i, e := range entries {
		scaled := uint16(e.Cutoff) * 8
		out[i].CutoffLow3 = byte(scaled & 0x07)
		out[i].CutoffHigh8 = byte(scaled >> 3)

		if e.NextIndex%4 != 0 {
			warnings = append(warnings, "convert: filter entry unaligned next-index not divisible by 4")
			out[i].NextIndex = e.NextIndex
			continue
		}
		out[i].NextIndex = e.NextIndex / 4
	}
	return out, warnings
}

// SequenceRow is one target-format row: the first row of an expanded note
// carries the latched instrument/command, subsequent sustain rows carry
// only the continue marker.
type SequenceRow struct {
	Instrument byte // sentinel 0x80 if unchanged
	Command    byte // sentinel 0x80 if unchanged
	CmdParam   byte
	Sustain    bool
	Note       byte
}

const unchangedSentinel = 0x80

// ConvertSequenceEvents maps decoded events to target rows.
func ConvertSequenceEvents(events []seqdecode.Event) []SequenceRow {
	out := make([]SequenceRow, len(events))
	for i, e := range events {
		row := SequenceRow{Instrument: unchangedSentinel, Command: unchangedSentinel, Sustain: e.Sustain, Note: e.Note}
		if e.Instrument != seqdecode.NoChange {
			row.Instrument = byte(e.Instrument)
		}
		if e.Command != seqdecode.NoChange {
			row.Command = byte(e.Command)
			row.CmdParam = e.CmdParam
		}
		out[i] = row
	}
	return out
}

// OrderEntry is a per-voice (transpose, sequence_index) pair.
type OrderEntry struct {
	Transpose     byte
	SequenceIndex byte
}

// ConvertOrders copies order-list entries unchanged: both formats use the
// transpose+0xA0 semitone encoding, so there is nothing to remap.
func ConvertOrders(entries []OrderEntry) []OrderEntry {
	out := make([]OrderEntry, len(entries))
	copy(out, entries)
	return out
}

// ValidateWavePointer checks a wave_ptr against the located wavetable's
// entry count, returning a BadWavePointer error rather than silently
// clamping (§9's open-question resolution: the source clamps, this
// implementation reports).
func ValidateWavePointer(wavePtr byte, wavetableLen int) error {
	if int(wavePtr) >= wavetableLen {
		return laxerr.New(laxerr.BadWavePointer, "wave_ptr %d exceeds wavetable of %d entries", wavePtr, wavetableLen)
	}
	return nil
}
