// Package write emits the target container: a little-endian load-address
// prefix, relocated driver code, the magic word, the descriptor-block
// chain, and the converted table payloads — in the emission order §4.G
// fixes.
//
// Grounded on musclesoft-nin64k/tools/forge/serialize/serializer.go's
// single-buffer build style (allocate, then copy each section at its
// offset in sequence) generalized from the teacher's fixed-size buffer to
// one sized from the chain and table payloads actually being emitted.
package write

import (
	"encoding/binary"

	"github.com/sidforge/laxity2sf2/descriptor"
)

const magicWord = 0x1337

// Tables bundles every converted table blob the writer places after the
// descriptor chain, in the order §4.G's step 5-6 specifies.
type Tables struct {
	Instruments []byte
	Wavetable   []byte
	Pulse       []byte
	Filter      []byte
	Sequences   []byte
	Orders      []byte
}

// Input is everything Emit needs to produce a target file.
type Input struct {
	LoadAddress  uint16
	DriverCode   []byte // already relocated by reloc.Relocate
	MagicOffset  int    // offset within DriverCode where magicWord belongs
	Chain        *descriptor.Chain
	Tables       Tables
}

// Emit assembles the final byte image per §4.G's emission order.
func Emit(in Input) []byte {
	var driver []byte
	driver = append(driver, in.DriverCode...)
	if in.MagicOffset >= 0 && in.MagicOffset+2 <= len(driver) {
		binary.LittleEndian.PutUint16(driver[in.MagicOffset:], magicWord)
	}

	chainBytes := in.Chain.Encode()

	var out []byte
	out = append(out, byte(in.LoadAddress), byte(in.LoadAddress>>8))
	out = append(out, driver...)
	out = append(out, chainBytes...)
	out = append(out, in.Tables.Instruments...)
	out = append(out, in.Tables.Wavetable...)
	out = append(out, in.Tables.Pulse...)
	out = append(out, in.Tables.Filter...)
	out = append(out, in.Tables.Sequences...)
	out = append(out, in.Tables.Orders...)

	return out
}
