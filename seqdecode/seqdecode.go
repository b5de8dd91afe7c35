// Package seqdecode walks a raw Laxity NewPlayer v21 sequence byte stream
// into a structured event list, expanding duration bytes into explicit
// sustain events and pairing command bytes with their parameter.
//
// Grounded on musclesoft-nin64k/tools/forge/parse/parser.go's fixed-width
// row loop (Parse walks a pattern's 64 rows one at a time, accumulating
// state as it goes) generalized to the source format's variable-width
// tokens, and on validate/vm.go's Step()-per-byte switch-dispatch shape —
// reused here as a cursor over a byte stream instead of a 6502 instruction
// stream. No coroutine or generator is used; Cursor is a plain struct
// that Decode's loop advances token by token.
package seqdecode

import (
	"fmt"

	"github.com/sidforge/laxity2sf2/laxerr"
)

// NoChange is the decoded-output sentinel (for both Instrument and
// Command) for "this field did not change this event", kept distinct from
// the zero value of the underlying type per §3's "no change ... is encoded explicitly, distinct
// from value 0" requirement.
const (
	NoChange = -1
)

// Event is one decoded sequence event.
type Event struct {
	Instrument int // NoChange if unset
	Command    int // NoChange if unset
	CmdParam   byte
	Sustain    bool // true for 0x7E-encoded continue events
	Note       byte // valid when !Sustain
}

const (
	termByte        = 0x7F
	sustainByte     = 0x7E
	noteMax         = 0x5F
	durationLow     = 0x80
	durationHigh    = 0x9F
	instrumentLow   = 0xA0
	instrumentHigh  = 0xBF
	commandLow      = 0xC0
	commandHigh     = 0xCF
)

// Cursor is the explicit mutable state a decode pass threads through the
// byte stream: current instrument/command latch plus the pending note
// duration, matching §4.D's state machine definition directly.
type Cursor struct {
	pos              int
	currentInstr     int
	currentCmd       int
	currentCmdParam  byte
	pendingDuration  byte
}

func newCursor() *Cursor {
	return &Cursor{currentInstr: NoChange, currentCmd: NoChange, pendingDuration: 1}
}

// Decode runs a full sequence decode. instrumentCount gates instrument-
// change bytes (§4.D: index >= count fails with BadInstrumentIndex).
func Decode(stream []byte, instrumentCount int) ([]Event, []string, error) {
	c := newCursor()
	var events []Event
	var warnings []string

	for c.pos < len(stream) {
		b := stream[c.pos]

		switch {
		case b == termByte:
			return events, warnings, nil

		case b >= durationLow && b <= durationHigh:
			c.pendingDuration = (b & 0x1F) + 1
			c.pos++

		case b >= instrumentLow && b <= instrumentHigh:
			idx := int(b & 0x1F)
			if idx >= instrumentCount {
				return nil, warnings, laxerr.New(laxerr.BadInstrumentIndex, "instrument %d at offset %d exceeds table of %d", idx, c.pos, instrumentCount)
			}
			c.currentInstr = idx
			c.pos++

		case b >= commandLow && b <= commandHigh:
			if c.pos+1 >= len(stream) {
				return nil, warnings, laxerr.New(laxerr.TruncatedSequence, "command at offset %d has no parameter byte", c.pos)
			}
			c.currentCmd = int(b & 0x0F)
			c.currentCmdParam = stream[c.pos+1]
			c.pos += 2

		case b == sustainByte:
			events = append(events, Event{Instrument: NoChange, Command: NoChange, Sustain: true})
			c.pos++

		case b <= noteMax:
			events = append(events, Event{
				Instrument: c.currentInstr,
				Command:    c.currentCmd,
				CmdParam:   c.currentCmdParam,
				Note:       b,
			})
			for i := byte(0); i < c.pendingDuration-1; i++ {
				events = append(events, Event{Instrument: NoChange, Command: NoChange, Sustain: true})
			}
			c.currentInstr = NoChange
			c.currentCmd = NoChange
			c.currentCmdParam = 0
			c.pendingDuration = 1
			c.pos++

		default:
			warnings = append(warnings, unknownByteWarning(b, c.pos))
			c.pos++
		}
	}

	return events, warnings, nil
}

func unknownByteWarning(b byte, pos int) string {
	return fmt.Sprintf("seqdecode: unknown byte 0x%02X at offset %d, advancing one byte", b, pos)
}
